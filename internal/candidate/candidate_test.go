package candidate

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/spigell/jobmatcher/internal/storage"
)

func TestLevelJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect Level
	}{
		{name: "name", input: `"Senior"`, expect: LevelSenior},
		{name: "lower case name", input: `"junior"`, expect: LevelJunior},
		{name: "ordinal", input: `4`, expect: LevelLead},
		{name: "unknown name", input: `"Architect"`, expect: LevelUnknown},
		{name: "null", input: `null`, expect: LevelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got Level
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestOrdinalsOutOfRange(t *testing.T) {
	t.Parallel()

	for _, input := range []string{`-3`, `5`, `99`} {
		var l Level
		if err := json.Unmarshal([]byte(input), &l); err == nil {
			t.Fatalf("expected error for level ordinal %s, got %v", input, l)
		}
	}
	for _, input := range []string{`-1`, `6`} {
		var d Degree
		if err := json.Unmarshal([]byte(input), &d); err == nil {
			t.Fatalf("expected error for degree ordinal %s, got %v", input, d)
		}
	}

	var p Profile
	if err := json.Unmarshal([]byte(`{"experience":{"level":-3}}`), &p); err == nil {
		t.Fatalf("expected profile with negative level to be rejected")
	}

	if got := Level(-2).Clamp(); got != LevelUnknown {
		t.Fatalf("expected clamp to unknown, got %v", got)
	}
	if got := Degree(9).Clamp(); got != DegreeDoctorate {
		t.Fatalf("expected clamp to doctorate, got %v", got)
	}
}

func TestDegreeJSON(t *testing.T) {
	t.Parallel()

	var d Degree
	if err := json.Unmarshal([]byte(`"master"`), &d); err != nil || d != DegreeMaster {
		t.Fatalf("expected master, got %v (%v)", d, err)
	}
	if err := json.Unmarshal([]byte(`5`), &d); err != nil || d != DegreeDoctorate {
		t.Fatalf("expected doctorate, got %v (%v)", d, err)
	}
	if err := json.Unmarshal([]byte(`{}`), &d); err == nil {
		t.Fatalf("expected error for object input")
	}

	out, err := json.Marshal(Education{Degree: DegreeBachelor})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"degree":"Bachelor"}` {
		t.Fatalf("unexpected encoding: %s", out)
	}
}

func TestProfileFormat(t *testing.T) {
	t.Parallel()

	var p *Profile
	if p.Format() != FormatUnspecified {
		t.Fatalf("expected unspecified for nil profile")
	}
	if (&Profile{}).Format().IsSpecified() {
		t.Fatalf("expected empty format to be unspecified")
	}
	if !(&Profile{WorkFormat: FormatRemote}).Format().IsSpecified() {
		t.Fatalf("expected remote to be specified")
	}
}

type memoryKV struct {
	data map[string][]byte
}

func (m *memoryKV) Load(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v, nil
}

func (m *memoryKV) Save(_ context.Context, key string, data []byte) error {
	m.data[key] = data
	return nil
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(&memoryKV{data: map[string][]byte{}})

	if _, err := store.Load(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := &Profile{
		ID:         "u1",
		City:       "Moscow",
		WorkFormat: FormatHybrid,
		Salary:     Salary{Desired: 200000, Min: 150000},
		Experience: Experience{Years: 4, Level: LevelMiddle},
		Education:  Education{Degree: DegreeMaster, Specialization: "CS"},
		HardSkills: []string{"Go", "SQL"},
	}
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(p, loaded) {
		t.Fatalf("expected %+v, got %+v", p, loaded)
	}

	if err := store.Save(ctx, &Profile{}); err == nil {
		t.Fatalf("expected error for profile without id")
	}
}
