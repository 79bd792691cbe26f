package objc

import (
	"errors"
	"fmt"
	"strings"
)

// ref - https://developer.apple.com/library/archive/documentation/Cocoa/Conceptual/ObjCRuntimeGuide/Articles/ocrtTypeEncodings.html

var (
	ErrUnexpectedEnd  = errors.New("unexpected end of type encoding")
	ErrUnbalanced     = errors.New("unbalanced brackets in type encoding")
	ErrArraySyntax    = errors.New("invalid array syntax in type encoding")
	ErrBitfieldSyntax = errors.New("invalid bitfield syntax in type encoding")
)

// Type is one decoded node of a type encoding.
type Type interface {
	// CType renders the type the way a generated header would spell it.
	CType() string
}

var primitiveNames = map[byte]string{
	'v': "void",
	'c': "BOOL", // or "char"
	'C': "unsigned char",
	's': "short",
	'S': "unsigned short",
	'i': "int",
	'I': "unsigned int",
	'l': "long",
	'L': "unsigned long",
	'q': "long long",
	'Q': "unsigned long long",
	't': "int128",
	'T': "unsigned int128",
	'f': "float",
	'd': "double",
	'D': "long double",
	'B': "BOOL",
	'z': "size_t",
	'Z': "int32",
	'w': "wchar_t",
	'*': "char *",
	'#': "Class",
	':': "SEL",
	'%': "NXAtom",
	'!': "vector",
	'?': "void", // or "undefined"
}

// Primitive is a single-letter scalar, selector, cstring or void type.
type Primitive struct {
	Code byte
}

func (p Primitive) CType() string {
	if name, ok := primitiveNames[p.Code]; ok {
		return name
	}
	return string(p.Code)
}

// Object is an '@' type: bare id, a block, or a (possibly protocol
// qualified) class reference.
type Object struct {
	Name      string
	Protocols []string
	IsBlock   bool
}

func (o Object) CType() string {
	if o.IsBlock {
		return "id /* block */"
	}
	var prots string
	if len(o.Protocols) > 0 {
		prots = fmt.Sprintf("<%s>", strings.Join(o.Protocols, ", "))
	}
	if len(o.Name) > 0 {
		return o.Name + prots + " *"
	}
	return "id" + prots
}

// Pointer is a '^' type.
type Pointer struct {
	Elem Type
}

func (p Pointer) CType() string {
	if prim, ok := p.Elem.(Primitive); ok && prim.Code == '?' {
		return "IMP"
	}
	return p.Elem.CType() + " *"
}

// Array is a '[N T]' fixed-size array type.
type Array struct {
	Count int
	Elem  Type
}

func (a Array) CType() string {
	return renderVar(a, "x")
}

// Struct is a '{name=members}' or '(name=members)' aggregate. Members
// is nil for opaque aggregates whose encoding omits the member list.
// Member names are not recoverable from the encoding.
type Struct struct {
	Name    string
	Union   bool
	Members []Type
}

func (s Struct) CType() string {
	var sb strings.Builder
	if s.Union {
		sb.WriteString("union")
	} else {
		sb.WriteString("struct")
	}
	if len(s.Name) > 0 {
		sb.WriteString(" " + s.Name)
	}
	if s.Members == nil {
		return sb.String()
	}
	sb.WriteString(" {")
	for i, m := range s.Members {
		sb.WriteString(" " + renderVar(m, fmt.Sprintf("x%d", i)) + ";")
	}
	sb.WriteString(" }")
	return sb.String()
}

// Bitfield is a 'bN' N-bit field type.
type Bitfield struct {
	Width int
}

func (b Bitfield) CType() string {
	return renderVar(b, "x")
}

// renderVar renders a declaration of name with type t, placing the
// name where C grammar wants it for arrays and bitfields.
func renderVar(t Type, name string) string {
	switch v := t.(type) {
	case Array:
		return fmt.Sprintf("%s %s[%d]", v.Elem.CType(), name, v.Count)
	case Bitfield:
		return fmt.Sprintf("unsigned int %s:%d", name, v.Width)
	default:
		return t.CType() + " " + name
	}
}

// MethodSignature is a decoded method type string: the return type
// followed by every argument type, including the implicit self and
// _cmd arguments.
type MethodSignature struct {
	Return Type
	Args   []Type
}

type typeDecoder struct {
	s   string
	pos int
}

func (d *typeDecoder) eof() bool {
	return d.pos >= len(d.s)
}

func (d *typeDecoder) peek() (byte, error) {
	if d.eof() {
		return 0, ErrUnexpectedEnd
	}
	return d.s[d.pos], nil
}

func (d *typeDecoder) next() (byte, error) {
	c, err := d.peek()
	if err != nil {
		return 0, err
	}
	d.pos++
	return c, nil
}

// skipQualifiers consumes method qualifiers (const, in, inout, out,
// bycopy, byref, oneway, atomic, complex, gnu register).
func (d *typeDecoder) skipQualifiers() {
	for !d.eof() && strings.IndexByte("rnNoORVAj+", d.s[d.pos]) >= 0 {
		d.pos++
	}
}

// skipOffset consumes the decimal stack-offset annotation that follows
// each type in a full method signature.
func (d *typeDecoder) skipOffset() {
	if !d.eof() && d.s[d.pos] == '-' {
		d.pos++
	}
	for !d.eof() && d.s[d.pos] >= '0' && d.s[d.pos] <= '9' {
		d.pos++
	}
}

func (d *typeDecoder) digits() (int, bool) {
	start := d.pos
	for !d.eof() && d.s[d.pos] >= '0' && d.s[d.pos] <= '9' {
		d.pos++
	}
	if d.pos == start {
		return 0, false
	}
	var n int
	for _, c := range []byte(d.s[start:d.pos]) {
		n = n*10 + int(c-'0')
	}
	return n, true
}

func (d *typeDecoder) quoted() (string, error) {
	if c, err := d.next(); err != nil || c != '"' {
		if err != nil {
			return "", err
		}
		return "", fmt.Errorf("expected quoted name at offset %d", d.pos-1)
	}
	start := d.pos
	for !d.eof() && d.s[d.pos] != '"' {
		d.pos++
	}
	if d.eof() {
		return "", ErrUnexpectedEnd
	}
	name := d.s[start:d.pos]
	d.pos++ // closing quote
	return name, nil
}

// parseType decodes one type. quotedName controls whether an '@' may
// consume a following quoted class name; inside aggregates the quotes
// belong to member names, not to the object type.
func (d *typeDecoder) parseType(quotedName bool) (Type, error) {
	d.skipQualifiers()

	c, err := d.next()
	if err != nil {
		return nil, err
	}

	switch c {
	case '@':
		var obj Object
		if !d.eof() && d.s[d.pos] == '?' {
			d.pos++
			obj.IsBlock = true
			return obj, nil
		}
		if quotedName && !d.eof() && d.s[d.pos] == '"' {
			name, err := d.quoted()
			if err != nil {
				return nil, err
			}
			obj.Name, obj.Protocols = splitProtocols(name)
		}
		return obj, nil
	case '^':
		elem, err := d.parseType(quotedName)
		if err != nil {
			return nil, err
		}
		return Pointer{Elem: elem}, nil
	case '[':
		count, ok := d.digits()
		if !ok {
			return nil, ErrArraySyntax
		}
		elem, err := d.parseType(quotedName)
		if err != nil {
			return nil, err
		}
		if end, err := d.next(); err != nil || end != ']' {
			return nil, ErrUnbalanced
		}
		return Array{Count: count, Elem: elem}, nil
	case '{':
		return d.parseAggregate('}', false)
	case '(':
		return d.parseAggregate(')', true)
	case 'b':
		width, ok := d.digits()
		if !ok {
			return nil, ErrBitfieldSyntax
		}
		return Bitfield{Width: width}, nil
	case ']', '}', ')':
		return nil, ErrUnbalanced
	default:
		if _, ok := primitiveNames[c]; !ok {
			return nil, fmt.Errorf("unsupported type code %q at offset %d", c, d.pos-1)
		}
		return Primitive{Code: c}, nil
	}
}

func (d *typeDecoder) parseAggregate(close byte, union bool) (Type, error) {
	agg := Struct{Union: union}

	start := d.pos
	for {
		c, err := d.peek()
		if err != nil {
			return nil, ErrUnbalanced
		}
		if c == '=' || c == close {
			break
		}
		d.pos++
	}
	agg.Name = d.s[start:d.pos]
	if agg.Name == "?" {
		agg.Name = ""
	}

	if d.s[d.pos] == '=' {
		d.pos++ // opaque aggregates stop at the name
		for {
			c, err := d.peek()
			if err != nil {
				return nil, ErrUnbalanced
			}
			if c == close {
				break
			}
			if c == '"' { // member name annotation
				if _, err := d.quoted(); err != nil {
					return nil, err
				}
				continue
			}
			member, err := d.parseType(false)
			if err != nil {
				return nil, err
			}
			agg.Members = append(agg.Members, member)
		}
	}

	d.pos++ // closing brace
	return agg, nil
}

// splitProtocols splits `Name<P1,P2>` or `Name<P1><P2>` into the class
// name and its protocol list. Either part may be absent.
func splitProtocols(name string) (string, []string) {
	idx := strings.IndexByte(name, '<')
	if idx < 0 {
		return name, nil
	}
	var prots []string
	for _, group := range strings.Split(name[idx:], "<") {
		group = strings.TrimSuffix(strings.TrimSpace(group), ">")
		if len(group) == 0 {
			continue
		}
		for _, p := range strings.Split(group, ",") {
			if p = strings.TrimSpace(p); len(p) > 0 {
				prots = append(prots, p)
			}
		}
	}
	return name[:idx], prots
}

// DecodeType decodes a single complete type encoding. The whole input
// must be consumed; leftover bytes are an error.
func DecodeType(s string) (Type, error) {
	d := &typeDecoder{s: s}
	t, err := d.parseType(true)
	if err != nil {
		return nil, err
	}
	if !d.eof() {
		return nil, fmt.Errorf("leftover encoding %q after offset %d", d.s[d.pos:], d.pos)
	}
	return t, nil
}

// DecodeMethodSignature decodes a full method type string: the return
// type followed by each argument type, each optionally preceded by
// qualifiers and followed by a stack offset.
func DecodeMethodSignature(s string) (*MethodSignature, error) {
	if len(s) == 0 {
		return nil, ErrUnexpectedEnd
	}

	d := &typeDecoder{s: s}

	ret, err := d.parseType(true)
	if err != nil {
		return nil, fmt.Errorf("failed to decode return type: %w", err)
	}
	d.skipOffset()

	sig := &MethodSignature{Return: ret}
	for !d.eof() {
		arg, err := d.parseType(true)
		if err != nil {
			return nil, fmt.Errorf("failed to decode argument %d: %w", len(sig.Args), err)
		}
		d.skipOffset()
		sig.Args = append(sig.Args, arg)
	}

	return sig, nil
}

// decodeMethodTypes renders a method type string as a return type and
// the explicit argument types, dropping the implicit self and _cmd.
func decodeMethodTypes(encodedTypes string) (string, []string) {
	sig, err := DecodeMethodSignature(encodedTypes)
	if err != nil {
		return "?", nil
	}
	var args []string
	if len(sig.Args) > 2 {
		for _, arg := range sig.Args[2:] {
			args = append(args, arg.CType())
		}
	}
	return sig.Return.CType(), args
}

// getMethodWithArgs renders a selector with its decoded types in
// generated-header form, e.g. "(void)setObject:(id)arg1 forKey:(id)arg2;".
func getMethodWithArgs(method, returnType string, args []string) string {
	if !strings.Contains(method, ":") {
		return fmt.Sprintf("(%s)%s;", returnType, method)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "(%s)", returnType)
	for i, part := range strings.Split(method, ":") {
		if len(part) == 0 {
			continue
		}
		argType := "id"
		if i < len(args) {
			argType = args[i]
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s:(%s)arg%d", part, argType, i+1)
	}
	sb.WriteByte(';')
	return sb.String()
}

const (
	propertyReadOnly  = "R" // property is read-only
	propertyBycopy    = "C" // property is a copy of the value last assigned
	propertyByref     = "&" // property is a reference to the value last assigned
	propertyDynamic   = "D" // property is dynamic
	propertyGetter    = "G" // followed by getter selector name
	propertySetter    = "S" // followed by setter selector name
	propertyIVar      = "V" // followed by instance variable name
	propertyType      = "T" // followed by old-style type encoding
	propertyWeak      = "W" // 'weak' property
	propertyStrong    = "P" // property GC'able
	propertyAtomic    = "A" // property atomic
	propertyNonAtomic = "N" // property non-atomic
)

// getPropertyType extracts and renders the T attribute of an encoded
// property attribute string. The result ends in "*" or a space so the
// property name can be appended directly.
func getPropertyType(attrs string) string {
	for _, attr := range strings.Split(attrs, ",") {
		if !strings.HasPrefix(attr, propertyType) {
			continue
		}
		enc := strings.TrimPrefix(attr, propertyType)
		t, err := DecodeType(enc)
		if err != nil {
			return enc + " "
		}
		s := t.CType()
		if !strings.HasSuffix(s, "*") {
			s += " "
		}
		return s
	}
	return ""
}

// getPropertyAttributeTypes renders the non-type attributes of an
// encoded property attribute string, e.g. "(nonatomic, copy) ". The
// second result reports whether the property is dynamic, which is how
// optional protocol properties present on disk.
func getPropertyAttributeTypes(attrs string) (string, bool) {
	var dynamic bool
	var attrsList []string

	for _, attr := range strings.Split(attrs, ",") {
		switch {
		case strings.HasPrefix(attr, propertyType), strings.HasPrefix(attr, propertyIVar):
			// type and backing-ivar are rendered elsewhere
		case strings.HasPrefix(attr, propertyGetter):
			attrsList = append(attrsList, fmt.Sprintf("getter=%s", strings.TrimPrefix(attr, propertyGetter)))
		case strings.HasPrefix(attr, propertySetter):
			attrsList = append(attrsList, fmt.Sprintf("setter=%s", strings.TrimPrefix(attr, propertySetter)))
		case attr == propertyReadOnly:
			attrsList = append(attrsList, "readonly")
		case attr == propertyNonAtomic:
			attrsList = append(attrsList, "nonatomic")
		case attr == propertyAtomic:
			attrsList = append(attrsList, "atomic")
		case attr == propertyBycopy:
			attrsList = append(attrsList, "copy")
		case attr == propertyByref:
			attrsList = append(attrsList, "retain")
		case attr == propertyWeak:
			attrsList = append(attrsList, "weak")
		case attr == propertyStrong:
			attrsList = append(attrsList, "collectable")
		case attr == propertyDynamic:
			dynamic = true
			attrsList = append(attrsList, "dynamic")
		}
	}

	if len(attrsList) > 0 {
		return fmt.Sprintf("(%s) ", strings.Join(attrsList, ", ")), dynamic
	}
	return "", dynamic
}

// getIVarType renders an ivar declaration from its type encoding,
// falling back to the raw encoding when it does not decode.
func getIVarType(ivType, name string) string {
	t, err := DecodeType(ivType)
	if err != nil {
		return ivType + " " + name
	}
	return renderVar(t, name)
}
