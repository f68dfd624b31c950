package participants

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/contacts"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
)

func newTestFormatter(t *testing.T) *Formatter {
	t.Helper()
	reg := contacts.NewRegistry(nil, nil)
	reg.Load([]types.Raw{
		{"mri": "8:orgid:abc", "displayName": "Alice"},
		{"mri": "8:orgid:def", "displayName": "Bob"},
	})
	return NewFormatter(reg)
}

func TestFormat(t *testing.T) {
	f := newTestFormatter(t)
	assert.Equal(t, "8:orgid:abc (Alice)", f.Format("8:orgid:abc"))
	assert.Equal(t, "8:orgid:zzz", f.Format("8:orgid:zzz"))
	assert.Equal(t, "", f.Format(""))
}

func TestFormatWithDuration(t *testing.T) {
	f := newTestFormatter(t)
	assert.Equal(t, "8:orgid:abc (Alice) - Duration: 42 seconds", f.FormatWithDuration("8:orgid:abc", 42))
	assert.Equal(t, "8:orgid:zzz - Duration: 0 seconds", f.FormatWithDuration("8:orgid:zzz", 0))
	assert.Equal(t, "", f.FormatWithDuration("", 5))
}

func TestDurationSuffixConsistent(t *testing.T) {
	f := newTestFormatter(t)
	entry := map[string]interface{}{"id": "8:orgid:abc", "duration": float64(42)}
	assert.Equal(t, f.FormatWithDuration("8:orgid:abc", 42), f.FormatEntry(entry))
}

func TestFormatEntry(t *testing.T) {
	f := newTestFormatter(t)

	t.Run("string id", func(t *testing.T) {
		assert.Equal(t, "8:orgid:abc (Alice)", f.FormatEntry("8:orgid:abc"))
	})

	t.Run("object with matching display name", func(t *testing.T) {
		got := f.FormatEntry(map[string]interface{}{"id": "8:orgid:abc", "displayName": "8:orgid:abc"})
		assert.Equal(t, "8:orgid:abc (Alice)", got)
	})

	t.Run("object with distinct display name", func(t *testing.T) {
		got := f.FormatEntry(map[string]interface{}{"id": "8:orgid:abc", "displayName": "A. Liddell"})
		assert.Equal(t, "8:orgid:abc (Alice) [A. Liddell]", got)
	})

	t.Run("object with duration", func(t *testing.T) {
		got := f.FormatEntry(map[string]interface{}{"id": "8:orgid:def", "duration": float64(90)})
		assert.Equal(t, "8:orgid:def (Bob) - Duration: 90 seconds", got)
	})

	t.Run("display name only", func(t *testing.T) {
		assert.Equal(t, "Carol", f.FormatEntry(map[string]interface{}{"displayName": "Carol"}))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, "", f.FormatEntry(nil))
	})
}

func TestFormatList(t *testing.T) {
	f := newTestFormatter(t)
	got := f.FormatList([]interface{}{"8:orgid:abc", "8:orgid:def"})
	assert.Equal(t, "8:orgid:abc (Alice); 8:orgid:def (Bob)", got)
	assert.Equal(t, "8:orgid:abc (Alice)", f.FormatList("8:orgid:abc"))
}

func TestFormatLines(t *testing.T) {
	f := newTestFormatter(t)

	got := f.FormatLines([]interface{}{
		"8:orgid:abc",
		map[string]interface{}{"id": "8:orgid:def", "duration": float64(30)},
		map[string]interface{}{}, // empty, dropped
	})
	assert.Equal(t, "8:orgid:abc (Alice)\n8:orgid:def (Bob) - Duration: 30 seconds", got)
}

func TestFormatLines_Scalar(t *testing.T) {
	f := newTestFormatter(t)
	assert.Equal(t, "8:orgid:abc (Alice)", f.FormatLines("8:orgid:abc"))
}
