// Document shapes stored in the hosted content store.
//
// Field names mirror the store schema exactly; these structs are the wire
// format for both query projections and mutation payloads.
package store

// Reference points at another document by ID. Key is only set inside keyed
// arrays, Weak on references that must survive target deletion.
type Reference struct {
	Ref  string `json:"_ref"`
	Type string `json:"_type"`
	Key  string `json:"_key,omitempty"`
	Weak bool   `json:"_weak,omitempty"`
}

// Ref builds a strong reference to the given document ID.
func Ref(id string) *Reference {
	return &Reference{Ref: id, Type: "reference"}
}

// Slug wraps the store's slug object.
type Slug struct {
	Type    string `json:"_type"`
	Current string `json:"current"`
}

// NewSlug builds a slug object from an already URL-safe value.
func NewSlug(current string) *Slug {
	return &Slug{Type: "slug", Current: current}
}

// Member statuses understood by the directory.
const (
	StatusPublished = "published"
	StatusSubmitted = "submitted"
	StatusDeclined  = "declined"
)

// Category document types a member can join.
const (
	TypeForum        = "forum"
	TypeNetwork      = "network"
	TypePriorityArea = "priorityArea"
	TypeActionGroup  = "actionGroup"
)

// Member is the primary directory entity: one institution or organization.
type Member struct {
	ID                 string       `json:"_id,omitempty"`
	Type               string       `json:"_type"`
	Title              string       `json:"title"`
	Slug               *Slug        `json:"slug,omitempty"`
	TypeOfOrganization string       `json:"typeOfOrganization,omitempty"`
	Description        string       `json:"description,omitempty"`
	Website            string       `json:"website,omitempty"`
	Emails             []string     `json:"emails,omitempty"`
	Focalpoint         string       `json:"focalpoint,omitempty"`
	DateJoined         string       `json:"dateJoined,omitempty"`
	Status             string       `json:"status,omitempty"`
	Country            *Reference   `json:"country,omitempty"`
	ImportCountryRaw   string       `json:"importCountryRaw,omitempty"`
	ActionGroups       []Reference  `json:"actionGroups,omitempty"`
}

// Country is read-only reference data; the importer looks countries up
// and never creates them.
type Country struct {
	ID          string     `json:"_id"`
	Type        string     `json:"_type"`
	Title       string     `json:"title"`
	Region      *Reference `json:"region,omitempty"`
	RegionTitle string     `json:"regionTitle,omitempty"` // projected via ->title
}

// Region groups countries and members geographically.
type Region struct {
	ID    string `json:"_id"`
	Type  string `json:"_type"`
	Title string `json:"title"`
}

// Category is one of the groupings a member can join: forum, network,
// priority area, or action group. Type carries the concrete document type.
type Category struct {
	ID          string `json:"_id"`
	Type        string `json:"_type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Membership joins a member to one category with free-text contribution.
// At most one membership exists per (member, category) pair; re-submission
// patches the existing document.
type Membership struct {
	ID           string     `json:"_id,omitempty"`
	Type         string     `json:"_type"`
	Member       *Reference `json:"member"`
	Category     *Reference `json:"category"`
	Contribution string     `json:"contribution,omitempty"`
	Since        string     `json:"since,omitempty"`
	Website      string     `json:"website,omitempty"`
	Status       string     `json:"status,omitempty"`
}
