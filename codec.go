package nbem

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// snapshotVersion is bumped when the snapshot layout changes.
const snapshotVersion = 1

// sumTolerance bounds how far a normalized table may drift from 1.
const sumTolerance = 1e-6

// MarshalBinary encodes the model as a protobuf Struct:
//
//	{version, normalized, classes: [...], priors: {c: w}, likelihood: {c: {tok: w}}}
//
// Encoding is deterministic, so equal models produce equal bytes.
func (m *Model) MarshalBinary() ([]byte, error) {
	s := m.snapshot()
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

// MarshalJSON renders the same snapshot as JSON.
func (m *Model) MarshalJSON() ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(m.snapshot())
}

func (m *Model) snapshot() *structpb.Struct {
	classes := make([]*structpb.Value, len(m.classes))
	priors := make(map[string]*structpb.Value, len(m.classes))
	likelihood := make(map[string]*structpb.Value, len(m.classes))

	for i, class := range m.classes {
		classes[i] = structpb.NewStringValue(class)
		priors[class] = structpb.NewNumberValue(m.priors[class])

		table := make(map[string]*structpb.Value, len(m.likelihood[class]))
		for tok, w := range m.likelihood[class] {
			table[tok] = structpb.NewNumberValue(w)
		}
		likelihood[class] = structpb.NewStructValue(&structpb.Struct{Fields: table})
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"version":    structpb.NewNumberValue(snapshotVersion),
		"normalized": structpb.NewBoolValue(m.normalized),
		"classes":    structpb.NewListValue(&structpb.ListValue{Values: classes}),
		"priors":     structpb.NewStructValue(&structpb.Struct{Fields: priors}),
		"likelihood": structpb.NewStructValue(&structpb.Struct{Fields: likelihood}),
	}}
}

// UnmarshalModel decodes a snapshot produced by MarshalBinary. A snapshot
// marked normalized must carry tables that sum to 1.
func UnmarshalModel(data []byte) (*Model, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return modelFromSnapshot(&s)
}

// UnmarshalModelJSON decodes a snapshot produced by MarshalJSON.
func UnmarshalModelJSON(data []byte) (*Model, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return modelFromSnapshot(&s)
}

func modelFromSnapshot(s *structpb.Struct) (*Model, error) {
	fields := s.GetFields()
	if v := fields["version"].GetNumberValue(); v != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %v", ErrInvalidSnapshot, v)
	}

	classes := fields["classes"].GetListValue().GetValues()
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: no classes", ErrInvalidSnapshot)
	}

	m := newModel()
	priors := fields["priors"].GetStructValue().GetFields()
	likelihood := fields["likelihood"].GetStructValue().GetFields()
	for _, cv := range classes {
		class, ok := cv.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: class is not a string", ErrInvalidSnapshot)
		}
		c := class.StringValue
		pv, ok := priors[c]
		if !ok {
			return nil, fmt.Errorf("%w: class %q has no prior", ErrInvalidSnapshot, c)
		}
		w, err := weight(pv)
		if err != nil {
			return nil, fmt.Errorf("%w: prior of %q: %w", ErrInvalidSnapshot, c, err)
		}
		m.priors[c] = w

		t := m.table(c)
		for tok, tv := range likelihood[c].GetStructValue().GetFields() {
			w, err := weight(tv)
			if err != nil {
				return nil, fmt.Errorf("%w: likelihood %q/%q: %w", ErrInvalidSnapshot, c, tok, err)
			}
			t[tok] = w
		}
	}

	for c := range likelihood {
		if !m.HasClass(c) {
			return nil, fmt.Errorf("%w: likelihood for unlisted class %q", ErrInvalidSnapshot, c)
		}
	}

	if fields["normalized"].GetBoolValue() {
		for _, c := range m.classes {
			if err := checkNormalized(m.likelihood[c]); err != nil {
				return nil, fmt.Errorf("%w: class %q: %w", ErrInvalidSnapshot, c, err)
			}
		}
		m.normalized = true
	}
	return m.seal(), nil
}

// checkNormalized accepts an empty table or one summing to 1.
func checkNormalized(table map[string]float64) error {
	if len(table) == 0 {
		return nil
	}
	var total float64
	for _, tok := range slices.Sorted(maps.Keys(table)) {
		total += table[tok]
	}
	if math.Abs(total-1) > sumTolerance {
		return fmt.Errorf("normalized table sums to %v", total)
	}
	return nil
}

func weight(v *structpb.Value) (float64, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, errors.New("not a number")
	}
	if n.NumberValue < 0 || math.IsNaN(n.NumberValue) || math.IsInf(n.NumberValue, 0) {
		return 0, fmt.Errorf("weight %v out of range", n.NumberValue)
	}
	return n.NumberValue, nil
}
