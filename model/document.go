/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package model

import (
	"errors"

	"gopkg.in/yaml.v2"
)

// Document is the declarative form of a Model.
//
// Type references are written as strings: "Edm.Int32",
// "NS.Customer", "Collection(Edm.String)".  Unqualified names are
// qualified with the Namespace.
type Document struct {
	Namespace       string         `json:"namespace,omitempty" yaml:",omitempty"`
	Doc             string         `json:"doc,omitempty" yaml:",omitempty"`
	Enums           []EnumDoc      `json:"enums,omitempty" yaml:",omitempty"`
	TypeDefinitions []TypeDefDoc   `json:"typeDefinitions,omitempty" yaml:"typeDefinitions,omitempty"`
	Types           []TypeDoc      `json:"types,omitempty" yaml:",omitempty"`
	Operations      []OperationDoc `json:"operations,omitempty" yaml:",omitempty"`
	EntitySets      []EntitySetDoc `json:"entitySets,omitempty" yaml:"entitySets,omitempty"`
}

type EnumDoc struct {
	Name    string   `json:"name" yaml:"name"`
	Members []string `json:"members,omitempty" yaml:",omitempty"`
	Flags   bool     `json:"flags,omitempty" yaml:",omitempty"`
}

type TypeDefDoc struct {
	Name       string `json:"name" yaml:"name"`
	Underlying string `json:"underlying" yaml:"underlying"`
}

type TypeDoc struct {
	Name       string        `json:"name" yaml:"name"`
	Kind       string        `json:"kind,omitempty" yaml:",omitempty"`
	Base       string        `json:"base,omitempty" yaml:",omitempty"`
	Abstract   bool          `json:"abstract,omitempty" yaml:",omitempty"`
	Open       bool          `json:"open,omitempty" yaml:",omitempty"`
	HasStream  bool          `json:"hasStream,omitempty" yaml:"hasStream,omitempty"`
	Properties []PropertyDoc `json:"properties,omitempty" yaml:",omitempty"`
	Navigation []PropertyDoc `json:"navigation,omitempty" yaml:",omitempty"`
}

// PropertyDoc describes a property, a navigation property, or a
// parameter.  Nullable defaults to true.
type PropertyDoc struct {
	Name                  string   `json:"name" yaml:"name"`
	Type                  string   `json:"type" yaml:"type"`
	Nullable              *bool    `json:"nullable,omitempty" yaml:",omitempty"`
	Contained             bool     `json:"contained,omitempty" yaml:",omitempty"`
	DerivedTypeConstraint []string `json:"derivedTypeConstraint,omitempty" yaml:"derivedTypeConstraint,omitempty"`
}

type OperationDoc struct {
	Name       string        `json:"name" yaml:"name"`
	Kind       string        `json:"kind,omitempty" yaml:",omitempty"`
	Bound      bool          `json:"bound,omitempty" yaml:",omitempty"`
	Parameters []PropertyDoc `json:"parameters,omitempty" yaml:",omitempty"`
}

type EntitySetDoc struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// ParseYAML reads a Document and compiles it.
func ParseYAML(bs []byte) (*Model, error) {
	var doc Document
	if err := yaml.Unmarshal(bs, &doc); err != nil {
		return nil, err
	}
	return doc.Compile()
}

// UnknownType occurs when a Document refers to a type it doesn't
// declare.
type UnknownType struct {
	Name  string
	Where string
}

func (e *UnknownType) Error() string {
	return `unknown type "` + e.Name + `" in ` + e.Where
}

// Compile resolves all type references and returns the Model.
func (doc *Document) Compile() (*Model, error) {
	m := &Model{
		Namespace: doc.Namespace,
		enums:     make(map[string]*EnumType, len(doc.Enums)),
		typedefs:  make(map[string]*TypeDefinition, len(doc.TypeDefinitions)),
		types:     make(map[string]*StructuredType, len(doc.Types)),
		ops:       make(map[string]*Operation, len(doc.Operations)),
		sets:      make(map[string]*EntitySet, len(doc.EntitySets)),
		doc:       doc,
	}

	for _, e := range doc.Enums {
		name := m.qualify(e.Name)
		m.enums[name] = &EnumType{Name: name, Members: e.Members, Flags: e.Flags}
	}
	for _, td := range doc.TypeDefinitions {
		if !IsPrimitiveName(td.Underlying) {
			return nil, &UnknownType{Name: td.Underlying, Where: "type definition " + td.Name}
		}
		name := m.qualify(td.Name)
		m.typedefs[name] = &TypeDefinition{Name: name, Underlying: td.Underlying}
	}

	// Declare every structured type first so that properties and
	// bases can refer to types declared later.
	for _, td := range doc.Types {
		name := m.qualify(td.Name)
		kind := ComplexKind
		switch td.Kind {
		case "", "complex":
		case "entity":
			kind = EntityKind
		default:
			return nil, errors.New(`type "` + td.Name + `" has unknown kind "` + td.Kind + `"`)
		}
		m.types[name] = &StructuredType{
			Name:      name,
			Kind:      kind,
			Abstract:  td.Abstract,
			Open:      td.Open,
			HasStream: td.HasStream,
		}
	}

	for _, td := range doc.Types {
		t := m.types[m.qualify(td.Name)]
		where := "type " + t.Name
		if td.Base != "" {
			base, have := m.types[m.qualify(td.Base)]
			if !have {
				return nil, &UnknownType{Name: td.Base, Where: where}
			}
			if base.Kind != t.Kind {
				return nil, errors.New(where + ": base type " + base.Name + " is a different kind")
			}
			t.Base = base
		}
		for _, pd := range td.Properties {
			ref, err := m.ref(pd.Type, pd.Nullable, where)
			if err != nil {
				return nil, err
			}
			t.Properties = append(t.Properties, &Property{
				Name:                  pd.Name,
				Type:                  ref,
				DerivedTypeConstraint: m.qualifyAll(pd.DerivedTypeConstraint),
			})
		}
		for _, pd := range td.Navigation {
			ref, err := m.ref(pd.Type, pd.Nullable, where)
			if err != nil {
				return nil, err
			}
			target := ref
			if ref.IsCollection() {
				target = ref.Elem
			}
			if target.Kind != EntityKind {
				return nil, errors.New(where + ": navigation property " + pd.Name + " must target an entity type")
			}
			t.Navigation = append(t.Navigation, &NavigationProperty{
				Name:                  pd.Name,
				Type:                  ref,
				Contained:             pd.Contained,
				DerivedTypeConstraint: m.qualifyAll(pd.DerivedTypeConstraint),
			})
		}
	}

	for _, t := range m.types {
		steps := 0
		for s := t.Base; s != nil; s = s.Base {
			if steps++; s == t || len(m.types) < steps {
				return nil, errors.New("type " + t.Name + " has a cyclic base type")
			}
		}
	}

	for _, od := range doc.Operations {
		name := m.qualify(od.Name)
		op := &Operation{Name: name, Kind: od.Kind, Bound: od.Bound}
		if op.Kind == "" {
			op.Kind = "action"
		}
		for _, pd := range od.Parameters {
			ref, err := m.ref(pd.Type, pd.Nullable, "operation "+name)
			if err != nil {
				return nil, err
			}
			op.Parameters = append(op.Parameters, &Parameter{Name: pd.Name, Type: ref})
		}
		m.ops[name] = op
	}

	for _, sd := range doc.EntitySets {
		t, have := m.types[m.qualify(sd.Type)]
		if !have || t.Kind != EntityKind {
			return nil, &UnknownType{Name: sd.Type, Where: "entity set " + sd.Name}
		}
		m.sets[sd.Name] = &EntitySet{Name: sd.Name, Type: t}
	}

	return m, nil
}

// Ref parses a type reference like "Collection(NS.Address)" against
// the Model.
func (m *Model) Ref(name string, nullable bool) (*TypeRef, error) {
	return m.ref(name, &nullable, "reference")
}

func (m *Model) ref(name string, nullable *bool, where string) (*TypeRef, error) {
	n := true
	if nullable != nil {
		n = *nullable
	}
	if elem := collectionElem(name); elem != "" {
		if collectionElem(elem) != "" {
			return nil, errors.New(where + ": nested collections are not supported")
		}
		e, err := m.ref(elem, &n, where)
		if err != nil {
			return nil, err
		}
		return CollectionOf(e), nil
	}
	switch {
	case name == Untyped:
		return &TypeRef{Kind: UntypedKind, Name: name, Nullable: true}, nil
	case IsPrimitiveName(name):
		return Primitive(name, n), nil
	}
	q := m.qualify(name)
	if _, have := m.enums[q]; have {
		return &TypeRef{Kind: EnumKind, Name: q, Nullable: n}, nil
	}
	if _, have := m.typedefs[q]; have {
		return &TypeRef{Kind: TypeDefinitionKind, Name: q, Nullable: n}, nil
	}
	if t, have := m.types[q]; have {
		return t.Ref(n), nil
	}
	return nil, &UnknownType{Name: name, Where: where}
}

func (m *Model) qualifyAll(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	acc := make([]string, len(names))
	for i, name := range names {
		acc[i] = m.qualify(name)
	}
	return acc
}
