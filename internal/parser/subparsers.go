package parser

import (
	"regexp"
	"strings"

	"resume-match-go/internal/types"
)

var (
	bulletPrefix = regexp.MustCompile(`^[•\-\*\+]\s*`)

	// 工作经历条目以职位行开头，行首大写且在出现小写前包含职位关键词
	experienceEntryStart = regexp.MustCompile(`^[A-Z][^a-z\n]*(?:Engineer|Manager|Developer|Analyst|Director|Specialist|Consultant|Lead|Senior|Junior)`)

	// 教育经历以大写开头的行切分
	educationEntryStart = regexp.MustCompile(`^[A-Z]`)

	experienceDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d{4}\s*[-–]\s*\d{4}\b`),
		regexp.MustCompile(`(?i)\b\d{4}\s*[-–]\s*Present\b`),
		regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}\s*[-–]\s*(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}\b`),
		regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}\s*[-–]\s*Present\b`),
	}

	companyIndicators = []string{"Inc", "LLC", "Corp", "Ltd", "Company", " at "}

	degreePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:Bachelor|Bachelors|Master|Masters|PhD|Ph\.D\.|Doctorate|Associate|Associates|MBA|BS|BA|MS|MA|BSc|MSc|Certificate|Diploma)\b.*`),
		regexp.MustCompile(`(?i)\b(?:B\.S\.|B\.A\.|M\.S\.|M\.A\.|Ph\.D\.|A\.S\.|A\.A\.)\s.*`),
		regexp.MustCompile(`(?i)\b(?:Associate of|Bachelor of|Master of|Doctor of)\b.*`),
		regexp.MustCompile(`(?i)\b(?:AS|AA|AAS|BFA|MFA|DBA|EdD|JD|MD)\b.*`),
		regexp.MustCompile(`(?i)\b(?:BS|BA|MS|MA|PhD)\s+.*`),
	}

	yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	gpaPattern  = regexp.MustCompile(`(?i)\bGPA:?\s*(\d+\.?\d*)\b`)
)

// ExtractExactSkills 对技能文本做词表精确匹配，返回词表中的规范写法
// 整词匹配覆盖正文内联提及，按行比较覆盖项目符号列表里的单独条目
func (p *SectionParser) ExtractExactSkills(skillsText string) []string {
	if skillsText == "" {
		return nil
	}

	var found []string
	seen := make(map[string]bool)
	skillsUpper := strings.ToUpper(skillsText)

	for _, skill := range exactSkills {
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToUpper(skill)) + `\b`)
		if pattern.MatchString(skillsUpper) {
			found = append(found, skill)
			seen[skill] = true
		}
	}

	// 项目符号行按整行精确比较，兜住 "C#" 这类整词边界匹配不到的技能
	// 行尾的 •-*+ 会被一并剥除，所以 "C++" 在这条路径同样匹配不到
	for _, line := range strings.Split(skillsText, "\n") {
		clean := bulletPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		clean = strings.Trim(clean, " •-*+")
		if clean == "" {
			continue
		}
		for _, skill := range exactSkills {
			if strings.EqualFold(clean, skill) && !seen[skill] {
				found = append(found, skill)
				seen[skill] = true
			}
		}
	}

	p.log.Debug().Int("count", len(found)).Msg("技能精确匹配完成")
	return found
}

// ParseExperienceEntries 将工作经历文本切分为结构化条目
func (p *SectionParser) ParseExperienceEntries(experienceText string) []types.ExperienceEntry {
	if experienceText == "" {
		return nil
	}

	var entries []types.ExperienceEntry
	for _, block := range splitBeforeMatching(experienceText, experienceEntryStart) {
		block = strings.TrimSpace(block)
		if len(block) < 20 {
			continue
		}
		if entry, ok := p.parseExperienceEntry(block); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (p *SectionParser) parseExperienceEntry(block string) (types.ExperienceEntry, bool) {
	lines := nonEmptyLines(block)
	if len(lines) == 0 {
		return types.ExperienceEntry{}, false
	}

	// 首行视为职位
	entry := types.ExperienceEntry{Title: lines[0]}

	// 自上而下找第一个日期范围
	for _, line := range lines {
		for _, pattern := range experienceDatePatterns {
			if m := pattern.FindString(line); m != "" {
				entry.Dates = m
				break
			}
		}
		if entry.Dates != "" {
			break
		}
	}

	// 公司名通常带有公司后缀或 " at "
	for _, line := range lines[1:] {
		for _, indicator := range companyIndicators {
			if strings.Contains(line, indicator) {
				entry.Company = line
				break
			}
		}
		if entry.Company != "" {
			break
		}
	}

	// 其余行拼成描述，跳过公司行与含日期的行
	var descLines []string
	for _, line := range lines[1:] {
		if line != entry.Company && !strings.Contains(line, entry.Dates) {
			descLines = append(descLines, line)
		}
	}
	entry.Description = strings.Join(descLines, " ")

	return entry, entry.Title != ""
}

// ParseEducationEntries 将教育经历文本切分为结构化条目
func (p *SectionParser) ParseEducationEntries(educationText string) []types.EducationEntry {
	if educationText == "" {
		return nil
	}

	var entries []types.EducationEntry
	for _, block := range splitBeforeMatching(educationText, educationEntryStart) {
		block = strings.TrimSpace(block)
		if len(block) < 10 {
			continue
		}
		if entry, ok := p.parseEducationEntry(block); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (p *SectionParser) parseEducationEntry(block string) (types.EducationEntry, bool) {
	lines := nonEmptyLines(block)
	if len(lines) == 0 {
		return types.EducationEntry{}, false
	}

	var entry types.EducationEntry

	// 自上而下找第一个学位描述
	for _, line := range lines {
		for _, pattern := range degreePatterns {
			if m := pattern.FindString(line); m != "" {
				entry.Degree = strings.TrimSpace(m)
				break
			}
		}
		if entry.Degree != "" {
			break
		}
	}

	// 年份取最后出现的
	for _, line := range lines {
		if m := yearPattern.FindString(line); m != "" {
			entry.Year = m
		}
	}

	for _, line := range lines {
		if m := gpaPattern.FindStringSubmatch(line); m != nil {
			entry.GPA = m[1]
		}
	}

	// 院校取第一个既不含学位也不含 GPA 和年份的行，
	// 学位为空时空串命中所有行，院校保持为空
	if entry.Degree != "" {
		for _, line := range lines {
			// 年份为空时不参与排除，缺年份的条目仍然能取到院校
			if !strings.Contains(line, entry.Degree) &&
				!strings.Contains(strings.ToUpper(line), "GPA") &&
				(entry.Year == "" || !strings.Contains(line, entry.Year)) {
				entry.Institution = line
				break
			}
		}
	}

	if entry.Degree == "" && entry.Institution == "" {
		return types.EducationEntry{}, false
	}
	return entry, true
}

// ParseCertificationEntries 按行拆分证书文本并去掉项目符号前缀
func (p *SectionParser) ParseCertificationEntries(certText string) []string {
	if certText == "" {
		return nil
	}

	var certs []string
	for _, line := range strings.Split(certText, "\n") {
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if len(line) >= 3 {
			certs = append(certs, line)
		}
	}
	return certs
}

// splitBeforeMatching 在匹配条目起始模式的行之前切分文本，
// 等价于在换行符处按后行内容决定是否开新块
func splitBeforeMatching(text string, startPattern *regexp.Regexp) []string {
	lines := strings.Split(text, "\n")
	var blocks []string
	var current []string
	for i, line := range lines {
		if i > 0 && startPattern.MatchString(line) {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	blocks = append(blocks, strings.Join(current, "\n"))
	return blocks
}

func nonEmptyLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
