package collections

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/cityhall/internal/autolink"
	"github.com/JakeFAU/cityhall/internal/content"
	"github.com/JakeFAU/cityhall/internal/normalize"
)

type valueItem struct {
	Value normalize.Scalar `json:"value"`
}

type targetItem struct {
	TargetID normalize.Scalar `json:"target_id"`
}

type rawEventListing struct {
	ID         normalize.Scalar   `json:"id"`
	Title      normalize.Scalar   `json:"title"`
	EventDate  normalize.Scalar   `json:"event_date"`
	Summary    normalize.Scalar   `json:"event_summary"`
	Department normalize.Scalar   `json:"field_department_reference"`
	EventTypes []normalize.Scalar `json:"event_types"`
	Path       normalize.Scalar   `json:"path"`
}

type rawDepartmentListing struct {
	NID      []valueItem     `json:"nid"`
	Path     json.RawMessage `json:"path"`
	Title    []valueItem     `json:"title"`
	LinkPile []struct {
		Links []content.Link `json:"links"`
	} `json:"field_short_link_pile"`
	Contact         []valueItem  `json:"field_short_contact"`
	ServiceCategory []targetItem `json:"field_service_category"`
}

type rawServiceListing struct {
	NID          normalize.Scalar   `json:"nid"`
	Title        normalize.Scalar   `json:"title"`
	Body         normalize.Scalar   `json:"body"`
	DepartmentID normalize.Scalar   `json:"departmentID"`
	Category     []normalize.Scalar `json:"category"`
	ActionTypes  []normalize.Scalar `json:"actionTypes"`
	Path         normalize.Scalar   `json:"path"`
}

type rawTerm struct {
	TID         normalize.Scalar `json:"tid"`
	Name        normalize.Scalar `json:"name"`
	Description normalize.Scalar `json:"description__value"`
}

// Mapper turns raw feed bodies into sorted collection rows. A body that is
// not the expected array yields an empty, non-nil slice.
type Mapper struct {
	loc    *time.Location
	linker *autolink.Linker
	logger *zap.Logger
}

// NewMapper builds a Mapper. loc is used for zone-less event dates.
func NewMapper(loc *time.Location, linker *autolink.Linker, logger *zap.Logger) *Mapper {
	if loc == nil {
		loc = time.Local
	}
	if linker == nil {
		linker = autolink.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mapper{loc: loc, linker: linker, logger: logger.Named("collections")}
}

// rows splits an array body into its elements. ok is false when body is not
// an array.
func rows(body []byte) ([]json.RawMessage, bool) {
	var out []json.RawMessage
	if err := json.Unmarshal(body, &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}

// EventListings maps the /entity/events feed.
func (m *Mapper) EventListings(body []byte) []content.EventListing {
	raws, ok := rows(body)
	if !ok {
		m.logger.Info("no event listings found")
		return []content.EventListing{}
	}
	out := make([]content.EventListing, 0, len(raws))
	for _, raw := range raws {
		var r rawEventListing
		if err := json.Unmarshal(raw, &r); err != nil {
			m.logger.Debug("skipping malformed event listing", zap.Error(err))
			continue
		}
		ts, err := normalize.ParseTimestamp(r.EventDate.String(), m.loc)
		if err != nil {
			m.logger.Warn("unparsable event listing date", zap.String("id", r.ID.String()), zap.Error(err))
			ts = time.Unix(0, 0).In(m.loc)
		}
		types := make([]string, 0, len(r.EventTypes))
		for _, t := range r.EventTypes {
			types = append(types, t.String())
		}
		out = append(out, content.EventListing{
			ID:            r.ID.String(),
			Timestamp:     ts,
			Title:         r.Title.String(),
			Text:          r.Summary.String(),
			Department:    orZero(r.Department.String()),
			EventTypes:    types,
			DateFormatted: normalize.DateFormatted(ts),
			TimeFormatted: normalize.TimeFormatted(ts),
			Href:          r.Path.String(),
		})
	}
	SortEventListings(out)
	return out
}

// DepartmentListings maps the /entity/departments feed. Contact blocks are
// autolinked.
func (m *Mapper) DepartmentListings(body []byte) []content.DepartmentListing {
	raws, ok := rows(body)
	if !ok {
		m.logger.Info("no department listings found")
		return []content.DepartmentListing{}
	}
	out := make([]content.DepartmentListing, 0, len(raws))
	for _, raw := range raws {
		var r rawDepartmentListing
		if err := json.Unmarshal(raw, &r); err != nil {
			m.logger.Debug("skipping malformed department listing", zap.Error(err))
			continue
		}
		links := []content.Link{}
		if len(r.LinkPile) > 0 && r.LinkPile[0].Links != nil {
			links = r.LinkPile[0].Links
		}
		contact := ""
		if len(r.Contact) > 0 {
			contact = m.linker.Link(r.Contact[0].Value.String())
		}
		category := ""
		if len(r.ServiceCategory) > 0 {
			category = r.ServiceCategory[0].TargetID.String()
		}
		out = append(out, content.DepartmentListing{
			ID:              orZero(firstValue(r.NID)),
			Path:            pathOf(r.Path),
			Title:           firstValue(r.Title),
			Links:           links,
			Contact:         contact,
			ServiceCategory: orZero(category),
		})
	}
	SortDepartmentListings(out)
	return out
}

// ServiceListings maps the /entity/services feed.
func (m *Mapper) ServiceListings(body []byte) []content.ServiceListing {
	raws, ok := rows(body)
	if !ok {
		m.logger.Info("no service listings found")
		return []content.ServiceListing{}
	}
	out := make([]content.ServiceListing, 0, len(raws))
	for _, raw := range raws {
		var r rawServiceListing
		if err := json.Unmarshal(raw, &r); err != nil {
			m.logger.Debug("skipping malformed service listing", zap.Error(err))
			continue
		}
		category := ""
		if len(r.Category) > 0 {
			category = r.Category[0].String()
		}
		actions := make([]string, 0, len(r.ActionTypes))
		for _, a := range r.ActionTypes {
			actions = append(actions, a.String())
		}
		out = append(out, content.ServiceListing{
			ID:              orZero(r.NID.String()),
			Title:           r.Title.String(),
			Text:            r.Body.String(),
			Department:      orZero(r.DepartmentID.String()),
			ServiceCategory: orZero(category),
			ActionTypes:     actions,
			Href:            r.Path.String(),
		})
	}
	SortServiceListings(out)
	return out
}

// Terms maps a taxonomy vocabulary document ({"terms": [...]}).
func (m *Mapper) Terms(body []byte) []content.Term {
	var envelope struct {
		Terms json.RawMessage `json:"terms"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		m.logger.Info("no terms found")
		return []content.Term{}
	}
	raws, ok := rows(envelope.Terms)
	if !ok {
		m.logger.Info("no terms found")
		return []content.Term{}
	}
	out := make([]content.Term, 0, len(raws))
	for _, raw := range raws {
		var r rawTerm
		if err := json.Unmarshal(raw, &r); err != nil {
			m.logger.Debug("skipping malformed term", zap.Error(err))
			continue
		}
		out = append(out, content.Term{
			ID:          orZero(r.TID.String()),
			Name:        r.Name.String(),
			Description: r.Description.String(),
		})
	}
	SortTerms(out)
	return out
}

// RawItems splits an array body without interpreting the rows.
func RawItems(body []byte) []json.RawMessage {
	raws, ok := rows(body)
	if !ok {
		return []json.RawMessage{}
	}
	return raws
}

func firstValue(items []valueItem) string {
	if len(items) == 0 {
		return ""
	}
	return items[0].Value.String()
}

// orZero mirrors the CMS convention of 0 for an absent reference.
func orZero(id string) string {
	if id == "" {
		return "0"
	}
	return id
}

// pathOf accepts a plain path string or a Drupal path field
// ([{"alias": "/parks"}]).
func pathOf(raw json.RawMessage) string {
	var s normalize.Scalar
	if json.Unmarshal(raw, &s) == nil && s != "" {
		return s.String()
	}
	var field []struct {
		Alias normalize.Scalar `json:"alias"`
	}
	if json.Unmarshal(raw, &field) == nil && len(field) > 0 {
		return field[0].Alias.String()
	}
	return ""
}
