package parser

// exactSkills 是技能精确匹配词表，提取结果保持此处的规范写法与顺序
var exactSkills = []string{
	// 编程语言
	"Python", "Java", "JavaScript", "TypeScript", "C++", "C#", "Go", "Rust", "Ruby", "PHP", "Swift", "Kotlin",
	"Scala", "R", "MATLAB", "SQL", "HTML", "CSS", "Bash", "PowerShell", "Perl", "Lua", "Dart", "F#",

	// 框架与类库
	"React", "Angular", "Vue.js", "Django", "Flask", "Spring", "Express.js", "Node.js", "Laravel", "Rails",
	"ASP.NET", "jQuery", "Bootstrap", "Tailwind", "Material-UI", "Vuetify", "Redux", "MobX", "RxJS",

	// 数据库
	"MySQL", "PostgreSQL", "MongoDB", "Redis", "Cassandra", "SQLite", "Oracle", "SQL Server", "DynamoDB",
	"Elasticsearch", "Neo4j", "InfluxDB", "CouchDB", "MariaDB",

	// 云平台
	"AWS", "Azure", "GCP", "Google Cloud", "Heroku", "DigitalOcean", "Linode", "Vercel", "Netlify",

	// DevOps 与工具链
	"Docker", "Kubernetes", "Jenkins", "GitLab CI", "GitHub Actions", "Terraform", "Ansible", "Chef", "Puppet",
	"Vagrant", "Helm", "Istio", "Prometheus", "Grafana", "ELK Stack", "Nginx", "Apache", "HAProxy",

	// 操作系统
	"Linux", "Ubuntu", "CentOS", "RHEL", "Windows", "macOS", "Unix", "Debian", "Fedora", "SUSE",

	// 开发工具
	"Git", "SVN", "Mercurial", "JIRA", "Confluence", "Slack", "Teams", "Trello", "Asana", "Notion",
	"VS Code", "IntelliJ", "Eclipse", "Vim", "Emacs", "Sublime Text", "Atom",

	// 测试
	"Jest", "Mocha", "Cypress", "Selenium", "JUnit", "PyTest", "TestNG", "Cucumber", "Postman", "Insomnia",

	// 数据科学与机器学习
	"TensorFlow", "PyTorch", "Keras", "Scikit-learn", "Pandas", "NumPy", "Matplotlib", "Seaborn", "Plotly",
	"Jupyter", "Apache Spark", "Hadoop", "Kafka", "Airflow", "MLflow", "Kubeflow",

	// 移动开发
	"React Native", "Flutter", "Xamarin", "Ionic", "Cordova", "Android Studio", "Xcode",

	// 设计与前端
	"Figma", "Sketch", "Adobe XD", "Photoshop", "Illustrator", "InVision", "Zeplin", "Framer",

	// 项目管理
	"Agile", "Scrum", "Kanban", "Waterfall", "SAFe", "Lean", "Six Sigma",

	// 安全
	"OWASP", "Penetration Testing", "Vulnerability Assessment", "SIEM", "IDS", "IPS", "Firewall",
	"OAuth", "SAML", "JWT", "SSL/TLS", "PKI",
}
