package models

// CVPersonalInfo holds contact details extracted from an uploaded CV.
type CVPersonalInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	LinkedIn string `json:"linkedin"`
	Website  string `json:"website"`
}

// CVEducation is one education entry of a CV extraction.
type CVEducation struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Major       string `json:"major"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	GPA         string `json:"gpa"`
}

// CVExperience is one work-experience entry of a CV extraction.
type CVExperience struct {
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
}

// CVSkill is a named skill with an optional proficiency level.
type CVSkill struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Proficiency string `json:"proficiency"`
}

// CVProject is one project entry of a CV extraction.
type CVProject struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url"`
}

// CVCertificate is one certification entry of a CV extraction.
type CVCertificate struct {
	Name       string `json:"name"`
	Issuer     string `json:"issuer"`
	IssueDate  string `json:"issue_date"`
	ExpiryDate string `json:"expiry_date"`
}

// CVTokenUsage accounts for the LLM tokens spent on an extraction.
type CVTokenUsage struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalTokens  int64   `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// CVAnalysisResult is the structured extraction returned by the CV upload
// endpoint. The shape is fixed by the backend contract: every field is
// present in the response, defaulting to empty or zero when extraction finds
// nothing. Normalize enforces that after decoding.
type CVAnalysisResult struct {
	FileID          string            `json:"file_id"`
	ConversationID  string            `json:"conversation_id"`
	PersonalInfo    CVPersonalInfo    `json:"personal_info"`
	Education       []CVEducation     `json:"education"`
	Experience      []CVExperience    `json:"experience"`
	Skills          []CVSkill         `json:"skills"`
	SkillsCount     int               `json:"skills_count"`
	Projects        []CVProject       `json:"projects"`
	Certificates    []CVCertificate   `json:"certificates"`
	Keywords        []string          `json:"keywords"`
	Characteristics map[string]string `json:"characteristics"`
	CVSummary       string            `json:"cv_summary"`
	TokenUsage      CVTokenUsage      `json:"token_usage"`
}

// Normalize replaces nil collections with empty ones and clamps derived
// counters so callers never observe absent fields.
func (r *CVAnalysisResult) Normalize() {
	if r.Education == nil {
		r.Education = []CVEducation{}
	}
	if r.Experience == nil {
		r.Experience = []CVExperience{}
	}
	if r.Skills == nil {
		r.Skills = []CVSkill{}
	}
	if r.Projects == nil {
		r.Projects = []CVProject{}
	}
	if r.Certificates == nil {
		r.Certificates = []CVCertificate{}
	}
	if r.Keywords == nil {
		r.Keywords = []string{}
	}
	if r.Characteristics == nil {
		r.Characteristics = map[string]string{}
	}
	if r.SkillsCount < len(r.Skills) {
		r.SkillsCount = len(r.Skills)
	}
}
