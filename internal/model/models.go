// Package model defines the shared domain types for the aggregator service.
package model

import "time"

// PriceType classifies how a posting's rate is quoted.
type PriceType string

const (
	PriceTypeMonthly PriceType = "MONTHLY"
	PriceTypeHourly  PriceType = "HOURLY"
)

// RemoteType classifies a posting's remote-work policy.
type RemoteType string

const (
	RemoteFull    RemoteType = "FULL"
	RemotePartial RemoteType = "PARTIAL"
	RemoteNone    RemoteType = "NONE"
)

// Status is a posting's lifecycle state. Postings are created NEW by the
// ingestion path and advanced by the user; CLOSED is terminal only by
// convention — the API allows setting any known status.
type Status string

const (
	StatusNew     Status = "NEW"
	StatusRead    Status = "READ"
	StatusApplied Status = "APPLIED"
	StatusClosed  Status = "CLOSED"
)

// Job is one aggregated posting from an external source. Identity is the
// (Source, SourceURL) pair; re-ingestion of the same pair merges into the
// existing row instead of creating a new one.
type Job struct {
	ID              int64      `json:"id"`
	Source          string     `json:"source"`
	SourceURL       string     `json:"sourceUrl"`
	SourceID        string     `json:"sourceId,omitempty"`
	Title           string     `json:"title"`
	MinPrice        *int       `json:"minPrice,omitempty"`
	MaxPrice        *int       `json:"maxPrice,omitempty"`
	PriceType       PriceType  `json:"priceType,omitempty"`
	SettlementHours string     `json:"settlementHours,omitempty"`
	RequiredSkills  []string   `json:"requiredSkills,omitempty"`
	PreferredSkills []string   `json:"preferredSkills,omitempty"`
	ExperienceYears string     `json:"experienceYears,omitempty"`
	Location        string     `json:"location,omitempty"`
	RemoteType      RemoteType `json:"remoteType,omitempty"`
	WorkDays        string     `json:"workDays,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	ContractPeriod  string     `json:"contractPeriod,omitempty"`
	CompanyName     string     `json:"companyName,omitempty"`
	Industry        string     `json:"industry,omitempty"`
	Description     string     `json:"description,omitempty"`
	Status          Status     `json:"status"`
	IsFavorite      bool       `json:"isFavorite"`
	PostedAt        *time.Time `json:"postedAt,omitempty"`
	CrawledAt       time.Time  `json:"crawledAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

// Summary is the trimmed shape returned by list/search endpoints.
type Summary struct {
	ID             int64      `json:"id"`
	Source         string     `json:"source"`
	Title          string     `json:"title"`
	MaxPrice       *int       `json:"maxPrice,omitempty"`
	Location       string     `json:"location,omitempty"`
	RemoteType     RemoteType `json:"remoteType,omitempty"`
	RequiredSkills []string   `json:"requiredSkills,omitempty"`
	Status         Status     `json:"status"`
	IsFavorite     bool       `json:"isFavorite"`
	PostedAt       *time.Time `json:"postedAt,omitempty"`
	CrawledAt      time.Time  `json:"crawledAt"`
}

// Summary converts a Job to its list representation.
func (j *Job) Summary() Summary {
	return Summary{
		ID:             j.ID,
		Source:         j.Source,
		Title:          j.Title,
		MaxPrice:       j.MaxPrice,
		Location:       j.Location,
		RemoteType:     j.RemoteType,
		RequiredSkills: j.RequiredSkills,
		Status:         j.Status,
		IsFavorite:     j.IsFavorite,
		PostedAt:       j.PostedAt,
		CrawledAt:      j.CrawledAt,
	}
}

// JobInput is the payload the crawler posts for one offer. The validate tags
// are enforced at the ingestion boundary.
type JobInput struct {
	Source          string     `json:"source" validate:"required"`
	SourceURL       string     `json:"sourceUrl" validate:"required,url"`
	SourceID        string     `json:"sourceId"`
	Title           string     `json:"title" validate:"required"`
	MinPrice        *int       `json:"minPrice" validate:"omitempty,min=0"`
	MaxPrice        *int       `json:"maxPrice" validate:"omitempty,min=0"`
	PriceType       PriceType  `json:"priceType" validate:"omitempty,oneof=MONTHLY HOURLY"`
	SettlementHours string     `json:"settlementHours"`
	RequiredSkills  []string   `json:"requiredSkills"`
	PreferredSkills []string   `json:"preferredSkills"`
	ExperienceYears string     `json:"experienceYears"`
	Location        string     `json:"location"`
	RemoteType      RemoteType `json:"remoteType" validate:"omitempty,oneof=FULL PARTIAL NONE"`
	WorkDays        string     `json:"workDays"`
	StartDate       *time.Time `json:"startDate"`
	ContractPeriod  string     `json:"contractPeriod"`
	CompanyName     string     `json:"companyName"`
	Industry        string     `json:"industry"`
	Description     string     `json:"description"`
	PostedAt        *time.Time `json:"postedAt"`
}

// NewJob builds a first-sight Job from crawler input. Status and favorite
// start at their defaults; CrawledAt is stamped with now.
func NewJob(in JobInput, now time.Time) *Job {
	j := &Job{
		Source:    in.Source,
		SourceURL: in.SourceURL,
		SourceID:  in.SourceID,
		Status:    StatusNew,
	}
	ApplyInput(j, in, now)
	return j
}

// ApplyInput overwrites a Job's mutable fields from crawler input and
// refreshes CrawledAt. Identity (ID, Source, SourceURL, SourceID), Status,
// IsFavorite and CreatedAt are left untouched — re-ingestion must not reset
// what the user has done with the posting.
func ApplyInput(j *Job, in JobInput, now time.Time) {
	j.Title = in.Title
	j.MinPrice = in.MinPrice
	j.MaxPrice = in.MaxPrice
	j.PriceType = in.PriceType
	j.SettlementHours = in.SettlementHours
	j.RequiredSkills = in.RequiredSkills
	j.PreferredSkills = in.PreferredSkills
	j.ExperienceYears = in.ExperienceYears
	j.Location = in.Location
	j.RemoteType = in.RemoteType
	j.WorkDays = in.WorkDays
	j.StartDate = in.StartDate
	j.ContractPeriod = in.ContractPeriod
	j.CompanyName = in.CompanyName
	j.Industry = in.Industry
	j.Description = in.Description
	j.PostedAt = in.PostedAt
	j.CrawledAt = now
}

// NotificationSettings is the singleton per-deployment notification
// configuration. LastNotifiedAt is the delivery watermark: postings crawled
// after it have not been notified yet.
type NotificationSettings struct {
	ID                  int64      `json:"id"`
	EmailEnabled        bool       `json:"emailEnabled"`
	EmailAddress        string     `json:"emailAddress,omitempty"`
	LineEnabled         bool       `json:"lineEnabled"`
	LineToken           string     `json:"-"`
	SlackEnabled        bool       `json:"slackEnabled"`
	SlackWebhookURL     string     `json:"-"`
	MinPriceThreshold   *int       `json:"minPriceThreshold,omitempty"`
	SkillsFilter        string     `json:"skillsFilter,omitempty"`
	RemoteOnly          bool       `json:"remoteOnly"`
	NotifyIntervalHours int        `json:"notifyIntervalHours"`
	LastNotifiedAt      *time.Time `json:"lastNotifiedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           *time.Time `json:"updatedAt,omitempty"`
}

// NotificationRecord is one append-only audit row: this job was delivered on
// this channel at this time.
type NotificationRecord struct {
	ID      int64     `json:"id"`
	JobID   int64     `json:"jobId"`
	Channel string    `json:"channel"`
	SentAt  time.Time `json:"sentAt"`
}

// SearchRequest carries the optional search clauses. Zero values mean "no
// clause": an empty request matches every posting.
type SearchRequest struct {
	Keyword    string     `json:"keyword,omitempty"`
	Skills     []string   `json:"skills,omitempty"`
	MinPrice   *int       `json:"minPrice,omitempty"`
	MaxPrice   *int       `json:"maxPrice,omitempty"`
	Location   string     `json:"location,omitempty"`
	RemoteType RemoteType `json:"remoteType,omitempty"`
	Sources    []string   `json:"sources,omitempty"`
	SortBy     string     `json:"sortBy,omitempty"`
	SortOrder  string     `json:"sortOrder,omitempty"`
	Page       int        `json:"page"`
	Size       int        `json:"size"`
}

// Page is one page of search or list results.
type Page struct {
	Content       []Summary `json:"content"`
	Page          int       `json:"page"`
	Size          int       `json:"size"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
}

// Stats is the overview returned by the stats endpoint.
type Stats struct {
	TotalJobs    int64            `json:"totalJobs"`
	NewJobs      int64            `json:"newJobs"`
	FavoriteJobs int64            `json:"favoriteJobs"`
	AveragePrice *float64         `json:"averagePrice,omitempty"`
	JobsBySource map[string]int64 `json:"jobsBySource"`
}
