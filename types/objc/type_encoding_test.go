package objc

import (
	"errors"
	"testing"
)

func TestDecodeTypeRendering(t *testing.T) {
	tests := []struct {
		name    string
		encType string
		want    string
	}{
		{
			name:    "nested aggregates and bitfields",
			encType: "^{OutterStruct=(InnerUnion=q{InnerStruct=ii})b1b2b10b1q}",
			want:    "struct OutterStruct { union InnerUnion { long long x0; struct InnerStruct { int x0; int x1; } x1; } x0; unsigned int x1:1; unsigned int x2:2; unsigned int x3:10; unsigned int x4:1; long long x5; } *",
		},
		{
			name:    "array of pointers",
			encType: "[2^v]",
			want:    "void * x[2]",
		},
		{
			name:    "bitfield",
			encType: "b13",
			want:    "unsigned int x:13",
		},
		{
			name:    "struct with annotated members",
			encType: "{test=\"isa\"@\"ptr\"*\"num\"i}",
			want:    "struct test { id x0; char * x1; int x2; }",
		},
		{
			name:    "anonymous union",
			encType: "(?=i)",
			want:    "union { int x0; }",
		},
		{
			name:    "block",
			encType: "@?",
			want:    "id /* block */",
		},
		{
			name:    "named object",
			encType: "@\"NSString\"",
			want:    "NSString *",
		},
		{
			name:    "protocol qualified object",
			encType: "@\"NSObject<OS_dispatch_queue>\"",
			want:    "NSObject<OS_dispatch_queue> *",
		},
		{
			name:    "bare protocol object",
			encType: "@\"<NSCopying>\"",
			want:    "id<NSCopying>",
		},
		{
			name:    "const char pointer",
			encType: "r*",
			want:    "char *",
		},
		{
			name:    "function pointer",
			encType: "^?",
			want:    "IMP",
		},
		{
			name:    "opaque struct pointer",
			encType: "^{_CFRunLoop}",
			want:    "struct _CFRunLoop *",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := DecodeType(tt.encType)
			if err != nil {
				t.Fatalf("DecodeType(%q) error = %v", tt.encType, err)
			}
			if got := typ.CType(); got != tt.want {
				t.Errorf("DecodeType(%q) = %v, want %v", tt.encType, got, tt.want)
			}
		})
	}
}

func TestDecodeTypeStructure(t *testing.T) {
	typ, err := DecodeType("@\"NSString\"")
	if err != nil {
		t.Fatal(err)
	}
	obj, ok := typ.(Object)
	if !ok {
		t.Fatalf("got %T, want Object", typ)
	}
	if obj.Name != "NSString" || len(obj.Protocols) != 0 || obj.IsBlock {
		t.Errorf("got %+v, want plain NSString object", obj)
	}

	typ, err = DecodeType("^{CGRect=dd}")
	if err != nil {
		t.Fatal(err)
	}
	ptr, ok := typ.(Pointer)
	if !ok {
		t.Fatalf("got %T, want Pointer", typ)
	}
	st, ok := ptr.Elem.(Struct)
	if !ok {
		t.Fatalf("got %T, want Struct element", ptr.Elem)
	}
	if st.Name != "CGRect" || st.Union {
		t.Errorf("got %+v, want struct CGRect", st)
	}
	if len(st.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(st.Members))
	}
	for i, m := range st.Members {
		if prim, ok := m.(Primitive); !ok || prim.Code != 'd' {
			t.Errorf("member %d = %v, want double", i, m)
		}
	}
}

func TestDecodeTypeErrors(t *testing.T) {
	tests := []struct {
		name    string
		encType string
		wantErr error
	}{
		{"empty", "", ErrUnexpectedEnd},
		{"dangling pointer", "^", ErrUnexpectedEnd},
		{"unterminated struct", "{CGRect=dd", ErrUnbalanced},
		{"unterminated array", "[2i", ErrUnbalanced},
		{"stray close bracket", "]", ErrUnbalanced},
		{"array without count", "[i]", ErrArraySyntax},
		{"bitfield without width", "b", ErrBitfieldSyntax},
		{"unterminated quoted name", "@\"NSString", ErrUnexpectedEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeType(tt.encType); !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeType(%q) error = %v, want %v", tt.encType, err, tt.wantErr)
			}
		})
	}

	// a valid prefix with leftover bytes is not a valid encoding
	if _, err := DecodeType("ii"); err == nil {
		t.Error("DecodeType(\"ii\") expected leftover error, got nil")
	}
}

func TestDecodeMethodSignature(t *testing.T) {
	tests := []struct {
		name     string
		types    string
		wantRet  string
		wantArgs int
	}{
		{"void no args", "v16@0:8", "void", 2},
		{"id getter", "@16@0:8", "id", 2},
		{"setter with object arg", "v24@0:8@16", "void", 3},
		{"mixed args", "q32@0:8@\"NSString\"16^{CGRect=dd}24", "long long", 4},
		{"const qualified return", "r*16@0:8", "char *", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := DecodeMethodSignature(tt.types)
			if err != nil {
				t.Fatalf("DecodeMethodSignature(%q) error = %v", tt.types, err)
			}
			if got := sig.Return.CType(); got != tt.wantRet {
				t.Errorf("return = %v, want %v", got, tt.wantRet)
			}
			if len(sig.Args) != tt.wantArgs {
				t.Errorf("got %d args, want %d", len(sig.Args), tt.wantArgs)
			}
		})
	}

	if _, err := DecodeMethodSignature(""); !errors.Is(err, ErrUnexpectedEnd) {
		t.Errorf("empty signature error = %v, want %v", err, ErrUnexpectedEnd)
	}
}

func TestGetMethodWithArgs(t *testing.T) {
	tests := []struct {
		name   string
		method string
		rtype  string
		args   []string
		want   string
	}{
		{
			name:   "no args",
			method: "description",
			rtype:  "NSString *",
			want:   "(NSString *)description;",
		},
		{
			name:   "two args",
			method: "setObject:forKey:",
			rtype:  "void",
			args:   []string{"id", "id"},
			want:   "(void)setObject:(id)arg1 forKey:(id)arg2;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getMethodWithArgs(tt.method, tt.rtype, tt.args); got != tt.want {
				t.Errorf("getMethodWithArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPropertyAttributes(t *testing.T) {
	prop := Property{
		Name:              "name",
		EncodedAttributes: "T@\"NSString\",N,C,V_name",
	}
	if got, want := prop.Type(), "NSString *"; got != want {
		t.Errorf("Type() = %v, want %v", got, want)
	}
	attrs, dynamic := prop.Attributes()
	if want := "(nonatomic, copy) "; attrs != want {
		t.Errorf("Attributes() = %q, want %q", attrs, want)
	}
	if dynamic {
		t.Error("Attributes() reported dynamic for a synthesized property")
	}

	dyn := Property{Name: "hash", EncodedAttributes: "TQ,R,D"}
	if got, want := dyn.Type(), "unsigned long long "; got != want {
		t.Errorf("Type() = %q, want %q", got, want)
	}
	if _, dynamic := dyn.Attributes(); !dynamic {
		t.Error("Attributes() missed the dynamic flag")
	}
}

func TestGetIVarType(t *testing.T) {
	tests := []struct {
		name    string
		encType string
		varName string
		want    string
	}{
		{"object", "@\"NSMutableDictionary\"", "_store", "NSMutableDictionary * _store"},
		{"array", "[12c]", "_buf", "BOOL _buf[12]"},
		{"bitfield", "b1", "_dirty", "unsigned int _dirty:1"},
		{"scalar", "Q", "_count", "unsigned long long _count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getIVarType(tt.encType, tt.varName); got != tt.want {
				t.Errorf("getIVarType() = %v, want %v", got, tt.want)
			}
		})
	}
}
