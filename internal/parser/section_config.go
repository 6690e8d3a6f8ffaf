package parser

import "resume-match-go/internal/types"

// 模糊匹配接受阈值：skills要求接近精确，其余章节放宽
const (
	skillsMatchThreshold  = 90
	defaultMatchThreshold = 70
	filterMatchThreshold  = 85
)

// targetSectionHeaders 7个规范目标章节到同义标题的映射，运行期不可变
var targetSectionHeaders = map[types.TargetSection][]string{
	types.SectionSummary: {
		"SUMMARY", "PROFESSIONAL SUMMARY", "PROFILE", "OVERVIEW", "OBJECTIVE", "CAREER OBJECTIVE",
	},
	types.SectionSpecialization: {
		"SPECIALIZATION", "EXPERTISE", "CORE COMPETENCIES", "AREA OF EXPERTISE", "SPECIALIZATION AREA",
	},
	types.SectionSkills: {
		"SKILLS", "TECHNICAL SKILLS", "CORE SKILLS", "COMPETENCIES", "TECHNOLOGIES",
	},
	types.SectionCurrentProject: {
		"CURRENT PROJECT", "CURRENT ASSIGNMENT", "CURRENT ROLE", "PRESENT POSITION", "CURRENT WORK",
	},
	types.SectionPriorExperience: {
		"EXPERIENCE", "WORK EXPERIENCE", "EMPLOYMENT HISTORY", "PROFESSIONAL EXPERIENCE", "CAREER HISTORY", "WORK HISTORY",
	},
	types.SectionEducation: {
		"EDUCATION", "EDUCATIONAL BACKGROUND", "ACADEMIC BACKGROUND", "ACADEMIC QUALIFICATIONS", "QUALIFICATIONS",
	},
	types.SectionCertifications: {
		"CERTIFICATIONS", "CERTIFICATES", "PROFESSIONAL CERTIFICATIONS", "LICENSES", "CREDENTIALS",
	},
}

// matchThreshold 返回某目标章节的接受阈值
func matchThreshold(section types.TargetSection) int {
	if section == types.SectionSkills {
		return skillsMatchThreshold
	}
	return defaultMatchThreshold
}
