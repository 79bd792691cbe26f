package types

import "testing"

func TestSegFlagString(t *testing.T) {
	tests := []struct {
		f    SegFlag
		want string
	}{
		{0, ""},
		{ReadOnly, "ReadOnly"},
		{HighVM | NoReLoc, "HighVM|NoReloc"},
		{ProtectedVersion1 | ReadOnly, "ProtectedVersion1|ReadOnly"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("SegFlag(%#x).String() = %q, want %q", uint32(tt.f), got, tt.want)
		}
	}
}

func TestNTypeString(t *testing.T) {
	tests := []struct {
		typ  NType
		want string
	}{
		{N_UNDF, "undefined"},
		{N_SECT | N_EXT, "section|external"},
		{N_ABS, "absolute"},
		{N_INDR | N_PEXT, "private|indirect"},
		{0x64, "debug"}, // N_SO stab
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("NType(%#x).String() = %q, want %q", uint8(tt.typ), got, tt.want)
		}
	}
}
