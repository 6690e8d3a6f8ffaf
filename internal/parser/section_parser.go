package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/types"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/rs/zerolog"
)

// 章节标题的两类识别模式：
// 整行大写，以及大写短语后跟冒号/连字符分隔符
var (
	plainHeaderPattern     = regexp.MustCompile(`^[A-Z][A-Z\s&/\-:()]{2,50}$`)
	delimitedHeaderPattern = regexp.MustCompile(`^([A-Z][A-Z\s&/\-()]{2,30})[:\-]`)

	// 仅由分隔线字符组成的行
	rulerLinePattern = regexp.MustCompile(`^[-=_]+$`)
	// 3个及以上连续换行
	excessNewlines = regexp.MustCompile(`\n\s*\n\s*\n`)
)

// SectionParser 基于大写标题与模糊匹配的原始章节解析器
// 除构造时装载的只读配置外无任何内部状态，可被多goroutine并发调用
type SectionParser struct {
	filterStrings []string
	log           zerolog.Logger
}

// NewSectionParser 创建章节解析器
// filterStrings 为需要从章节内容中剔除的套话短语，可以为空
func NewSectionParser(filterStrings []string) *SectionParser {
	return &SectionParser{
		filterStrings: filterStrings,
		log:           logger.Component("section_parser"),
	}
}

// ParseResume 对简历文本做章节解析
// rawSections 为true时返回清洗后的7个原始章节字符串，否则返回结构化字段
// 任何内部意外都会被转换为带错误标记的结果，不向外传播panic
func (p *SectionParser) ParseResume(text string, filename string, rawSections bool) (result *types.ParsedResume) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("filename", filename).Msg("章节解析发生意外错误")
			result = &types.ParsedResume{
				Status: types.ParseFailed,
				Error:  fmt.Sprintf("章节解析失败: %v", r),
				Metadata: types.ResumeMetadata{
					Filename:      filename,
					ProcessedAt:   time.Now().Format(time.RFC3339),
					ParsingMethod: types.ParsingMethodFailed,
				},
			}
		}
	}()

	p.log.Info().Str("filename", filename).Msg("开始原始章节解析")

	// 先找出全部候选章节标题及其位置
	headers := p.findSections(text)

	// 逐个目标章节提取内容，固定按规范顺序迭代
	extracted := make(map[types.TargetSection]string, len(types.CanonicalSections))
	for _, target := range types.CanonicalSections {
		extracted[target] = p.extractSectionContent(text, headers, target, filename)
	}

	method := types.ParsingMethodFuzzy
	if rawSections {
		method = types.ParsingMethodRawContent
	}

	result = &types.ParsedResume{
		Status: types.ParseOK,
		Metadata: types.ResumeMetadata{
			Filename:      filename,
			ProcessedAt:   time.Now().Format(time.RFC3339),
			ParsingMethod: method,
		},
		DetectedSections: p.sectionInfo(headers),
	}

	if rawSections {
		raw := &types.RawSections{}
		for _, target := range types.CanonicalSections {
			raw.Set(target, extracted[target])
		}
		result.RawSections = raw
	} else {
		result.ResumeData = &types.ResumeData{
			Summary:         extracted[types.SectionSummary],
			Specialization:  extracted[types.SectionSpecialization],
			Skills:          p.ExtractExactSkills(extracted[types.SectionSkills]),
			CurrentProject:  extracted[types.SectionCurrentProject],
			PriorExperience: p.ParseExperienceEntries(extracted[types.SectionPriorExperience]),
			Education:       p.ParseEducationEntries(extracted[types.SectionEducation]),
			Certifications:  p.ParseCertificationEntries(extracted[types.SectionCertifications]),
		}
	}

	p.log.Info().Str("filename", filename).Msg("原始章节解析完成")
	return result
}

// findSections 扫描文本中所有疑似章节标题的行
// 两类模式独立运行后合并，按偏移升序排序；同一行可能产生两条记录
func (p *SectionParser) findSections(text string) []types.DetectedHeader {
	var headers []types.DetectedHeader

	lines := strings.Split(text, "\n")

	// 整行大写的标题
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) >= 3 && plainHeaderPattern.MatchString(line) {
			// 只取首次出现的位置；相同标题重复出现时全部坍缩到第一次出现处
			if pos := strings.Index(text, line); pos >= 0 {
				headers = append(headers, types.DetectedHeader{
					Text:   line,
					Offset: pos,
					Kind:   types.HeaderPlain,
				})
			}
		}
	}

	// 形如 "SECTION:" 或 "SECTION -" 的标题
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if m := delimitedHeaderPattern.FindStringSubmatch(line); m != nil {
			header := strings.TrimSpace(m[1])
			if pos := strings.Index(text, line); pos >= 0 {
				headers = append(headers, types.DetectedHeader{
					Text:   header,
					Offset: pos,
					Kind:   types.HeaderDelimited,
				})
			}
		}
	}

	// 按位置排序，相同位置保持先plain后delimited的插入顺序
	sort.SliceStable(headers, func(i, j int) bool {
		return headers[i].Offset < headers[j].Offset
	})

	p.log.Debug().Int("count", len(headers)).Msg("候选章节标题扫描完成")
	return headers
}

// sectionInfo 生成全部检测标题的诊断信息
func (p *SectionParser) sectionInfo(headers []types.DetectedHeader) []types.SectionInfo {
	infos := make([]types.SectionInfo, 0, len(headers))
	for _, h := range headers {
		infos = append(infos, types.SectionInfo{
			Header:    h.Text,
			Position:  h.Offset,
			Type:      h.Kind,
			MatchedTo: string(p.findTargetMatch(h.Text)),
		})
	}
	return infos
}

// findTargetMatch 判断某个标题归属于哪个目标章节，无法归属时返回空
func (p *SectionParser) findTargetMatch(header string) types.TargetSection {
	var best types.TargetSection
	bestScore := 0

	for _, target := range types.CanonicalSections {
		for _, synonym := range targetSectionHeaders[target] {
			score := fuzzy.Ratio(strings.ToUpper(header), strings.ToUpper(synonym))
			if score >= matchThreshold(target) && score > bestScore {
				best = target
				bestScore = score
			}
		}
	}
	return best
}

// extractSectionContent 为单个目标章节提取并清洗内容
// 无法匹配或清洗后为空时返回空字符串
func (p *SectionParser) extractSectionContent(text string, headers []types.DetectedHeader, target types.TargetSection, filename string) string {
	synonyms := targetSectionHeaders[target]
	threshold := matchThreshold(target)

	var bestHeader string
	bestScore := 0
	bestOffset := -1

	// 在所有检测标题×同义词组合中找相似度最高者
	for _, h := range headers {
		for _, synonym := range synonyms {
			score := fuzzy.Ratio(strings.ToUpper(h.Text), strings.ToUpper(synonym))
			if score >= threshold && score > bestScore {
				bestHeader = h.Text
				bestScore = score
				bestOffset = h.Offset
			}
		}
	}

	if bestOffset < 0 {
		p.log.Debug().Str("section", string(target)).Msg("目标章节未找到匹配标题")
		return ""
	}

	p.log.Info().
		Str("section", string(target)).
		Str("header", bestHeader).
		Int("score", bestScore).
		Msg("章节标题匹配成功")

	// 内容边界：匹配标题之后，直到下一个偏移严格更大的标题
	nextOffset := len(text)
	for _, h := range headers {
		if h.Offset > bestOffset {
			nextOffset = h.Offset
			break
		}
	}

	start := bestOffset + len(bestHeader)
	if start > nextOffset {
		start = nextOffset
	}
	content := strings.TrimSpace(text[start:nextOffset])

	content = cleanSectionContent(content)
	content = p.removeFilterStrings(content)
	content = RemovePersonName(content, filename)

	return content
}

// cleanSectionContent 清理章节内容：压缩空行、去掉分隔线行
func cleanSectionContent(content string) string {
	if content == "" {
		return ""
	}

	content = strings.TrimSpace(content)
	content = excessNewlines.ReplaceAllString(content, "\n\n")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !rulerLinePattern.MatchString(line) {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

// removeFilterStrings 按行剔除与过滤短语相似或互为子串的内容
// 过滤列表为空时原样返回；单行的去留互不影响
func (p *SectionParser) removeFilterStrings(content string) string {
	if content == "" || len(p.filterStrings) == 0 {
		return content
	}

	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	removed := 0

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			kept = append(kept, line)
			continue
		}

		drop := false
		upper := strings.ToUpper(stripped)
		for _, filter := range p.filterStrings {
			filterUpper := strings.ToUpper(filter)
			similarity := fuzzy.Ratio(upper, filterUpper)
			if similarity >= filterMatchThreshold ||
				strings.Contains(upper, filterUpper) ||
				strings.Contains(filterUpper, upper) {
				drop = true
				removed++
				p.log.Debug().Str("line", stripped).Str("filter", filter).Int("similarity", similarity).Msg("剔除过滤短语行")
				break
			}
		}
		if !drop {
			kept = append(kept, line)
		}
	}

	if removed > 0 {
		p.log.Info().Int("removed", removed).Msg("过滤短语剔除完成")
	}
	return strings.Join(kept, "\n")
}
