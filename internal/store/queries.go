package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hesi-tools/memberdir/internal/shared"
)

// MemberSummary is the bounded projection returned by search and lookup.
// Groups is only populated by [Client.MemberTitles], for tag reconciliation.
type MemberSummary struct {
	ID      string      `json:"_id"`
	Title   string      `json:"title"`
	Emails  []string    `json:"emails,omitempty"`
	Website string      `json:"website,omitempty"`
	Groups  []Reference `json:"groups,omitempty"`
}

// Countries fetches every canonical country with its region title projected
// through the region reference.
func (c *Client) Countries(ctx context.Context) ([]Country, error) {
	var out []Country
	query := `*[_type == "country"]{_id, _type, title, region, "regionTitle": region->title} | order(title asc)`
	if err := c.Query(ctx, query, nil, &out); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch countries: %w", err)
	}
	return out, nil
}

// Regions fetches every region document, canonical or not.
func (c *Client) Regions(ctx context.Context) ([]Region, error) {
	var out []Region
	query := `*[_type == "region"]{_id, _type, title} | order(title asc)`
	if err := c.Query(ctx, query, nil, &out); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch regions: %w", err)
	}
	return out, nil
}

// Categories fetches grouping documents of the given types in title order.
func (c *Client) Categories(ctx context.Context, types []string) ([]Category, error) {
	var out []Category
	query := `*[_type in $types]{_id, _type, title, description} | order(title asc)`
	if err := c.Query(ctx, query, map[string]any{"types": types}, &out); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	return out, nil
}

// MemberByID fetches one member document.
func (c *Client) MemberByID(ctx context.Context, id string) (*Member, error) {
	var out Member
	query := `*[_type == "member" && _id == $id][0]`
	if err := c.Query(ctx, query, map[string]any{"id": id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchMembers returns published members whose title starts with the
// query, capped at limit.
func (c *Client) SearchMembers(ctx context.Context, prefix string, limit int) ([]MemberSummary, error) {
	var out []MemberSummary
	query := fmt.Sprintf(
		`*[_type == "member" && status == "published" && title match $q]{_id, title} | order(title asc) [0...%d]`,
		limit,
	)
	err := c.Query(ctx, query, map[string]any{"q": prefix + "*"}, &out)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("search members: %w", err)
	}
	return out, nil
}

// MembersByEmail returns published members that carry the email on record.
func (c *Client) MembersByEmail(ctx context.Context, email string) ([]MemberSummary, error) {
	var out []MemberSummary
	query := `*[_type == "member" && status == "published" && $email in emails]{_id, title, emails, website}`
	err := c.Query(ctx, query, map[string]any{"email": email}, &out)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("lookup members: %w", err)
	}
	return out, nil
}

// MemberTitles returns every member's ID and title, used for name-based
// reconciliation.
func (c *Client) MemberTitles(ctx context.Context) ([]MemberSummary, error) {
	var out []MemberSummary
	query := `*[_type == "member"]{_id, title, "groups": actionGroups}`
	err := c.Query(ctx, query, nil, &out)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("fetch member titles: %w", err)
	}
	return out, nil
}

// MemberIDs returns IDs of members, optionally filtered to one status.
func (c *Client) MemberIDs(ctx context.Context, status string) ([]string, error) {
	query := `*[_type == "member"]._id`
	params := map[string]any{}
	if status != "" {
		query = `*[_type == "member" && status == $status]._id`
		params["status"] = status
	}
	var out []string
	err := c.Query(ctx, query, params, &out)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("fetch member ids: %w", err)
	}
	return out, nil
}

// MembershipsForMember returns every membership held by a member.
func (c *Client) MembershipsForMember(ctx context.Context, memberID string) ([]Membership, error) {
	var out []Membership
	query := `*[_type == "membership" && member._ref == $member]{_id, _type, member, category, contribution, since, website, status}`
	err := c.Query(ctx, query, map[string]any{"member": memberID}, &out)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("fetch memberships: %w", err)
	}
	return out, nil
}

// MembershipFor returns the existing membership for a (member, category)
// pair, or nil when none exists.
func (c *Client) MembershipFor(ctx context.Context, memberID, categoryID string) (*Membership, error) {
	var out Membership
	query := `*[_type == "membership" && member._ref == $member && category._ref == $category][0]{_id, _type, member, category, contribution, since, website, status}`
	err := c.Query(ctx, query, map[string]any{"member": memberID, "category": categoryID}, &out)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch membership: %w", err)
	}
	return &out, nil
}

// MembershipIDs returns every membership document ID.
func (c *Client) MembershipIDs(ctx context.Context) ([]string, error) {
	var out []string
	err := c.Query(ctx, `*[_type == "membership"]._id`, nil, &out)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("fetch membership ids: %w", err)
	}
	return out, nil
}

// DocumentsReferencing returns full documents holding references to any of
// the given IDs, for reference cleaning before deletion.
func (c *Client) DocumentsReferencing(ctx context.Context, ids []string) ([]map[string]any, error) {
	var out []map[string]any
	err := c.Query(ctx, `*[references($ids)]`, map[string]any{"ids": ids}, &out)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("fetch referencing documents: %w", err)
	}
	return out, nil
}

// CountByType returns the number of documents of one type.
func (c *Client) CountByType(ctx context.Context, docType string) (int, error) {
	var n int
	err := c.Query(ctx, `count(*[_type == $type])`, map[string]any{"type": docType}, &n)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return 0, fmt.Errorf("count %s documents: %w", docType, err)
	}
	return n, nil
}
