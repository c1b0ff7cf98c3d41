package models

import "testing"

func TestBaseAccessors(t *testing.T) {
	b := Base{PropName: "Health", PropTag: 2, PropSize: 4}
	if b.Name() != "Health" || b.Tag() != 2 || b.Size() != 4 {
		t.Fatalf("Base accessors = (%q, %d, %d), want (\"Health\", 2, 4)", b.Name(), b.Tag(), b.Size())
	}
}

func TestKindMatchesWireTypeName(t *testing.T) {
	cases := []struct {
		kind Kind
		name string
	}{
		{KindBool, "BoolProperty"},
		{KindStruct, "StructProperty"},
		{KindMap, "MapProperty"},
	}
	for _, c := range cases {
		if string(c.kind) != c.name {
			t.Fatalf("Kind %v != wire name %q", c.kind, c.name)
		}
	}
}

func TestPropertyInterfaceSatisfiedByEveryKind(t *testing.T) {
	var props []Property = []Property{
		BoolProperty{Base: Base{PropName: "a"}},
		ByteProperty{Base: Base{PropName: "b"}},
		IntProperty{Base: Base{PropName: "c"}},
		Int64Property{Base: Base{PropName: "d"}},
		UInt64Property{Base: Base{PropName: "e"}},
		FloatProperty{Base: Base{PropName: "f"}},
		DoubleProperty{Base: Base{PropName: "g"}},
		StrProperty{Base: Base{PropName: "h"}},
		NameProperty{Base: Base{PropName: "i"}},
		ObjectProperty{Base: Base{PropName: "j"}},
		TextProperty{Base: Base{PropName: "k"}},
		ArrayProperty{Base: Base{PropName: "l"}},
		StructProperty{Base: Base{PropName: "m"}},
		MapProperty{Base: Base{PropName: "n"}},
	}
	if len(props) != 14 {
		t.Fatalf("expected 14 property kinds, got %d", len(props))
	}
	for _, p := range props {
		if p.Name() == "" {
			t.Fatalf("property %T has empty name", p)
		}
		if p.Kind() == "" {
			t.Fatalf("property %T has empty kind", p)
		}
	}
}
