package todo

import "strconv"

// Item is a single to-do entry. ID and URL are assigned once by the store and
// never change afterwards.
type Item struct {
	ID        int64  `json:"-"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	Completed bool   `json:"completed"`
}

// Patch is a partial update. Nil fields are left untouched, so a JSON body
// only needs to carry the fields it changes. Field names the decoder does
// not know about are dropped. A title may also be given as a JSON number or
// boolean, see Text.
type Patch struct {
	Order     *int  `json:"order,omitempty"`
	Title     *Text `json:"title,omitempty"`
	Completed *bool `json:"completed,omitempty"`
}

// Apply merges the set fields of p into item.
func (p Patch) Apply(item *Item) {
	if p.Order != nil {
		item.Order = *p.Order
	}
	if p.Title != nil {
		item.Title = string(*p.Title)
	}
	if p.Completed != nil {
		item.Completed = *p.Completed
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Order == nil && p.Title == nil && p.Completed == nil
}

// ItemURL joins a collection URL and an item id.
func ItemURL(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10)
}
