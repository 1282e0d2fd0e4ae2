package audit

// FieldChange holds the before/after values of one changed field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Changes maps field names to their old/new values. An empty map means
// the update touched nothing and no audit record should be written.
type Changes map[string]FieldChange

// Redacted is the placeholder stored for sensitive fields. The real
// value (or hash) never enters the audit trail.
const Redacted = "***"

// Field applies one optional patch field: when patch is present and
// differs from *current by value, the change is recorded under name and
// *current is overwritten. Absent or equal fields leave no trace, which
// is what keeps no-op updates out of the audit trail.
func Field[T comparable](ch Changes, name string, current *T, patch *T) {
	if patch == nil || *patch == *current {
		return
	}
	ch[name] = FieldChange{Old: *current, New: *patch}
	*current = *patch
}

// RefField is Field for nullable columns modeled as pointers (e.g. an
// optional foreign key). nil means NULL, not "absent from the patch";
// callers pass present=false when the request omitted the field.
func RefField[T comparable](ch Changes, name string, current **T, patch *T, present bool) {
	if !present {
		return
	}
	if equalRef(*current, patch) {
		return
	}
	ch[name] = FieldChange{Old: refValue(*current), New: refValue(patch)}
	*current = patch
}

// RedactedField records a change without exposing either value.
func RedactedField(ch Changes, name string) {
	ch[name] = FieldChange{Old: Redacted, New: Redacted}
}

func equalRef[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func refValue[T comparable](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
