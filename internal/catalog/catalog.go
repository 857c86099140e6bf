package catalog

// Catalog is the field lookup for one object type. The two sentinel fields
// are always present: AnyField as a string field and AnyRelation as a
// pickable field, both at the front of the iteration order.
type Catalog struct {
	fields map[string]FieldDescriptor
	order  []string
}

// New builds a catalog from already-classified descriptors. Sentinels are
// prepended unless the input carries its own.
func New(fields []FieldDescriptor) *Catalog {
	c := &Catalog{fields: make(map[string]FieldDescriptor, len(fields)+2)}

	c.add(FieldDescriptor{ID: AnyField, Type: TypeString})
	c.add(FieldDescriptor{ID: AnyRelation, Type: TypePickable})
	for _, f := range fields {
		c.add(f)
	}
	return c
}

// FromRemote classifies a searchable-properties feed and builds a catalog.
func FromRemote(fields []RemoteField) *Catalog {
	descriptors := make([]FieldDescriptor, 0, len(fields))
	for _, f := range fields {
		descriptors = append(descriptors, AssignInternalType(f))
	}
	return New(descriptors)
}

func (c *Catalog) add(f FieldDescriptor) {
	if _, exists := c.fields[f.ID]; !exists {
		c.order = append(c.order, f.ID)
	}
	c.fields[f.ID] = f
}

// Lookup returns the descriptor for a field id.
func (c *Catalog) Lookup(id string) (FieldDescriptor, bool) {
	f, ok := c.fields[id]
	return f, ok
}

// Fields returns the descriptors in catalog order.
func (c *Catalog) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.fields[id])
	}
	return out
}

// Len returns the number of fields, sentinels included.
func (c *Catalog) Len() int { return len(c.order) }
