package model

// Contacts is the full contact set in store order, indexed by id and phone number.
type Contacts struct {
	list    []*Contact
	byID    map[string]*Contact
	byPhone map[string]*Contact
}

// NewContacts indexes contacts, keeping their order. The first contact with a given phone
// number wins the phone index.
func NewContacts(list []*Contact) *Contacts {
	c := &Contacts{
		list:    list,
		byID:    make(map[string]*Contact, len(list)),
		byPhone: make(map[string]*Contact, len(list)),
	}
	for _, ct := range list {
		c.byID[ct.ID] = ct
		if ct.Phone != "" {
			if _, ok := c.byPhone[ct.Phone]; !ok {
				c.byPhone[ct.Phone] = ct
			}
		}
	}
	return c
}

// Get returns the contact with the given id.
func (c *Contacts) Get(id string) (*Contact, bool) {
	ct, ok := c.byID[id]
	return ct, ok
}

// ByPhone returns the contact registered under a phone number.
func (c *Contacts) ByPhone(phone string) (*Contact, bool) {
	ct, ok := c.byPhone[phone]
	return ct, ok
}

// All returns every contact in store order.
func (c *Contacts) All() []*Contact {
	return c.list
}

// Len returns the number of contacts.
func (c *Contacts) Len() int {
	return len(c.list)
}
