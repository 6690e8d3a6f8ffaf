package types

// TargetSection 表示简历的规范目标章节ID
type TargetSection string

const (
	// SectionSummary 个人总结章节
	SectionSummary TargetSection = "summary"
	// SectionSpecialization 专业方向章节
	SectionSpecialization TargetSection = "specialization"
	// SectionSkills 技能章节
	SectionSkills TargetSection = "skills"
	// SectionCurrentProject 当前项目章节
	SectionCurrentProject TargetSection = "current_project"
	// SectionPriorExperience 工作经历章节
	SectionPriorExperience TargetSection = "prior_experience"
	// SectionEducation 教育经历章节
	SectionEducation TargetSection = "education"
	// SectionCertifications 证书章节
	SectionCertifications TargetSection = "certifications"
)

// CanonicalSections 规范章节的固定迭代顺序，输出中7个章节始终全部出现
var CanonicalSections = []TargetSection{
	SectionSummary,
	SectionSpecialization,
	SectionSkills,
	SectionCurrentProject,
	SectionPriorExperience,
	SectionEducation,
	SectionCertifications,
}

// HeaderKind 表示检测到的章节标题的类型
type HeaderKind string

const (
	// HeaderPlain 整行大写形式的标题
	HeaderPlain HeaderKind = "potential_header"
	// HeaderDelimited 带冒号或连字符分隔符的标题
	HeaderDelimited HeaderKind = "header_with_delimiter"
)

// DetectedHeader 文本中检测到的一个候选章节标题
type DetectedHeader struct {
	Text   string     // 标题文本（已去除首尾空白）
	Offset int        // 在原始文本中的字符偏移（首次出现位置）
	Kind   HeaderKind // 标题类型
}

// SectionMatch 目标章节与检测标题之间的一次成功匹配
type SectionMatch struct {
	Target TargetSection // 目标章节
	Header string        // 匹配到的标题文本
	Score  int           // 模糊相似度得分 (0-100)
	Start  int           // 内容区间起点（标题文本之后）
	End    int           // 内容区间终点（下一个标题的偏移，或文本末尾）
}

// SectionInfo 检测到的章节标题的诊断信息，随解析结果一起返回
type SectionInfo struct {
	Header    string     `json:"header"`
	Position  int        `json:"position"`
	Type      HeaderKind `json:"type"`
	MatchedTo string     `json:"matched_to,omitempty"`
}

// ParsingMethod 解析方式
type ParsingMethod string

const (
	// MethodFullText 仅清洗全文，不做章节解析
	MethodFullText ParsingMethod = "full_text"
	// MethodSectionBased 章节解析模式
	MethodSectionBased ParsingMethod = "section_based"
)

// CleaningIntensity 文本清洗强度
type CleaningIntensity string

const (
	CleaningLight      CleaningIntensity = "light"
	CleaningMedium     CleaningIntensity = "medium"
	CleaningAggressive CleaningIntensity = "aggressive"
)

// ResumeMetadata 单次解析的元信息
type ResumeMetadata struct {
	Filename      string `json:"filename"`
	ProcessedAt   string `json:"processed_at"`
	ParsingMethod string `json:"parsing_method"`
}

// 解析方式标记，写入 ResumeMetadata.ParsingMethod
const (
	ParsingMethodRawContent = "raw_section_content" // 原始章节内容模式
	ParsingMethodFuzzy      = "raw_section_fuzzy"   // 结构化模式
	ParsingMethodFailed     = "raw_section_failed"  // 解析失败
)

// RawSections 7个规范章节的原始清洗后内容，字段顺序即规范顺序
type RawSections struct {
	Summary         string `json:"summary"`
	Specialization  string `json:"specialization"`
	Skills          string `json:"skills"`
	CurrentProject  string `json:"current_project"`
	PriorExperience string `json:"prior_experience"`
	Education       string `json:"education"`
	Certifications  string `json:"certifications"`
}

// Get 按章节ID取值
func (r *RawSections) Get(section TargetSection) string {
	switch section {
	case SectionSummary:
		return r.Summary
	case SectionSpecialization:
		return r.Specialization
	case SectionSkills:
		return r.Skills
	case SectionCurrentProject:
		return r.CurrentProject
	case SectionPriorExperience:
		return r.PriorExperience
	case SectionEducation:
		return r.Education
	case SectionCertifications:
		return r.Certifications
	}
	return ""
}

// Set 按章节ID赋值
func (r *RawSections) Set(section TargetSection, content string) {
	switch section {
	case SectionSummary:
		r.Summary = content
	case SectionSpecialization:
		r.Specialization = content
	case SectionSkills:
		r.Skills = content
	case SectionCurrentProject:
		r.CurrentProject = content
	case SectionPriorExperience:
		r.PriorExperience = content
	case SectionEducation:
		r.Education = content
	case SectionCertifications:
		r.Certifications = content
	}
}

// ExperienceEntry 结构化的一段工作经历
type ExperienceEntry struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Dates       string `json:"dates"`
	Description string `json:"description"`
}

// EducationEntry 结构化的一段教育经历
type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
	GPA         string `json:"gpa"`
}

// ResumeData 结构化模式下的7章节数据
type ResumeData struct {
	Summary         string            `json:"summary"`
	Specialization  string            `json:"specialization"`
	Skills          []string          `json:"skills"`
	CurrentProject  string            `json:"current_project"`
	PriorExperience []ExperienceEntry `json:"prior_experience"`
	Education       []EducationEntry  `json:"education"`
	Certifications  []string          `json:"certifications"`
}

// ParseStatus 解析结果的判别标记，调用方必须先检查它再使用章节数据
type ParseStatus string

const (
	// ParseOK 解析成功
	ParseOK ParseStatus = "ok"
	// ParseFailed 解析失败，Error字段携带原因
	ParseFailed ParseStatus = "failed"
)

// ParsedResume 一次章节解析调用的完整结果
// 每次调用新建，构造后不再修改，交给调用方即弃，内部不做缓存
type ParsedResume struct {
	Status   ParseStatus    `json:"status"`
	Error    string         `json:"error,omitempty"`
	Metadata ResumeMetadata `json:"metadata"`

	// RawSections 在原始章节模式下填充
	RawSections *RawSections `json:"raw_sections,omitempty"`
	// ResumeData 在结构化模式下填充
	ResumeData *ResumeData `json:"resume_data,omitempty"`

	// DetectedSections 全部检测到的标题及其归属诊断
	DetectedSections []SectionInfo `json:"detected_sections,omitempty"`
}

// ProcessResult 处理器入口的聚合输出
type ProcessResult struct {
	RawText     string        `json:"raw_text"`
	CleanedText string        `json:"cleaned_text"`
	Parsed      *ParsedResume `json:"parsed,omitempty"` // 仅 section_based 模式
}

// RankedMatch 某个岗位下按相似度排序后的一条匹配结果
type RankedMatch struct {
	MatchID    uint64  `json:"match_id"`
	ResumeID   string  `json:"resume_id"`
	Filename   string  `json:"filename"`
	Similarity float64 `json:"similarity_score"`
	Rank       int     `json:"rank"`
}
