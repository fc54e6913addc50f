// Package pkix maps X.509 Distinguished Names to and from DER trees.
package pkix

import (
	"fmt"
	"strings"

	"github.com/letsencrypt/pkider/der"
)

// Name is a Distinguished Name restricted to the attributes this module
// understands. An empty field is an absent attribute.
type Name struct {
	Country            string
	State              string
	Locality           string
	Organization       string
	OrganizationalUnit string
	CommonName         string
	EmailAddress       string
}

type attribute struct {
	oid   der.ObjectIdentifier
	short string
	// tag is the string type used when serializing.
	tag   byte
	field func(*Name) *string
}

// attributes is in serialization order.
var attributes = []attribute{
	{"2.5.4.6", "C", der.TagPrintableString, func(n *Name) *string { return &n.Country }},
	{"2.5.4.8", "ST", der.TagUTF8String, func(n *Name) *string { return &n.State }},
	{"2.5.4.7", "L", der.TagUTF8String, func(n *Name) *string { return &n.Locality }},
	{"2.5.4.10", "O", der.TagUTF8String, func(n *Name) *string { return &n.Organization }},
	{"2.5.4.11", "OU", der.TagUTF8String, func(n *Name) *string { return &n.OrganizationalUnit }},
	{"2.5.4.3", "CN", der.TagUTF8String, func(n *Name) *string { return &n.CommonName }},
	{"1.2.840.113549.1.9.1", "emailAddress", der.TagIA5String, func(n *Name) *string { return &n.EmailAddress }},
}

var attributesByOID = func() map[der.ObjectIdentifier]attribute {
	m := make(map[der.ObjectIdentifier]attribute, len(attributes))
	for _, a := range attributes {
		m[a.oid] = a
	}
	return m
}()

// Parse reads a Name from the members of an RDNSequence. Attributes with an
// unknown OID are skipped.
func Parse(rdns der.Sequence) (Name, error) {
	var name Name
	for i, rdn := range rdns {
		set, ok := rdn.(der.Set)
		if !ok {
			return Name{}, &der.TypeMismatchError{Expected: "set", Actual: rdn.Kind(), Index: i}
		}
		for j, member := range set {
			atv, ok := member.(der.Sequence)
			if !ok {
				return Name{}, &der.TypeMismatchError{Expected: "sequence", Actual: member.Kind(), Index: j}
			}
			oid, err := der.Get[der.ObjectIdentifier](atv, 0)
			if err != nil {
				return Name{}, fmt.Errorf("pkix: RDN %d: %w", i, err)
			}
			attr, known := attributesByOID[oid]
			if !known {
				continue
			}
			if len(atv) != 2 {
				return Name{}, fmt.Errorf("pkix: RDN %d: attribute %s has %d members, expected 2", i, oid, len(atv))
			}

			var value string
			switch v := atv[1].(type) {
			case der.UTF8String:
				value = string(v)
			case der.PrintableString:
				value = string(v)
			case der.IA5String:
				value = string(v)
			default:
				return Name{}, &der.TypeMismatchError{Expected: "string", Actual: v.Kind(), Index: 1}
			}
			*attr.field(&name) = value
		}
	}
	return name, nil
}

// Serialize returns the RDNSequence of n, one single-attribute RDN per
// populated field.
func Serialize(n Name) der.Sequence {
	rdns := der.Sequence{}
	for _, attr := range attributes {
		value := *attr.field(&n)
		if value == "" {
			continue
		}

		var v der.Node
		switch attr.tag {
		case der.TagPrintableString:
			v = der.PrintableString(value)
		case der.TagIA5String:
			v = der.IA5String(value)
		default:
			v = der.UTF8String(value)
		}
		rdns = append(rdns, der.Set{der.Sequence{attr.oid, v}})
	}
	return rdns
}

// Equal reports whether n and o hold the same attributes.
func (n Name) Equal(o Name) bool {
	return n == o
}

// String renders n most-specific first, e.g. "CN=test,O=Example,C=US".
func (n Name) String() string {
	var parts []string
	for i := len(attributes) - 1; i >= 0; i-- {
		attr := attributes[i]
		if value := *attr.field(&n); value != "" {
			parts = append(parts, attr.short+"="+value)
		}
	}
	return strings.Join(parts, ",")
}
