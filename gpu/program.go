// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gpu

import "github.com/nope-engine/ngl/internal/hashmap"

// BindingInfo records where a named shader resource was
// bound by the compiler/linker: a vertex attribute location,
// or a uniform/storage buffer block's binding index.
type BindingInfo struct {
	Location int
	Binding  int
}

// Program is one compiled vertex+fragment pair, or one
// compiled compute stage, plus name->BindingInfo maps for its
// uniforms, attributes and buffer-block bindings. The maps are
// filled only through SetAttribute, SetUniform and SetBlock;
// neither backend calls those while compiling. Shader cross-
// compilation is out of scope; Program only wraps already
// backend-compiled ShaderCode.
type Program struct {
	Vert, Frag ShaderCode
	Comp       ShaderCode

	uniforms   *hashmap.Map[string, BindingInfo]
	attributes *hashmap.Map[string, BindingInfo]
	blocks     *hashmap.Map[string, BindingInfo]
}

// NewGraphicsProgram wraps a compiled vertex+fragment pair.
func NewGraphicsProgram(vert, frag ShaderCode) *Program {
	return &Program{
		Vert: vert, Frag: frag,
		uniforms:   hashmap.New[string, BindingInfo](),
		attributes: hashmap.New[string, BindingInfo](),
		blocks:     hashmap.New[string, BindingInfo](),
	}
}

// NewComputeProgram wraps a compiled compute stage.
func NewComputeProgram(comp ShaderCode) *Program {
	return &Program{
		Comp:       comp,
		uniforms:   hashmap.New[string, BindingInfo](),
		attributes: hashmap.New[string, BindingInfo](),
		blocks:     hashmap.New[string, BindingInfo](),
	}
}

// SetAttribute records the discovered location of a vertex
// attribute.
func (p *Program) SetAttribute(name string, location int) {
	p.attributes.Set(name, BindingInfo{Location: location})
}

// SetUniform records the discovered binding of a sampler/
// image uniform.
func (p *Program) SetUniform(name string, binding int) {
	p.uniforms.Set(name, BindingInfo{Binding: binding})
}

// SetBlock records the discovered binding of a uniform or
// storage buffer block.
func (p *Program) SetBlock(name string, binding int) {
	p.blocks.Set(name, BindingInfo{Binding: binding})
}

// Attribute looks up a vertex attribute's discovered
// location.
func (p *Program) Attribute(name string) (BindingInfo, bool) { return p.attributes.Get(name) }

// Uniform looks up a sampler/image uniform's discovered
// binding.
func (p *Program) Uniform(name string) (BindingInfo, bool) { return p.uniforms.Get(name) }

// Block looks up a buffer block's discovered binding.
func (p *Program) Block(name string) (BindingInfo, bool) { return p.blocks.Get(name) }

// Destroy releases the program's shader stages.
func (p *Program) Destroy() {
	if p.Vert != nil {
		p.Vert.Destroy()
	}
	if p.Frag != nil {
		p.Frag.Destroy()
	}
	if p.Comp != nil {
		p.Comp.Destroy()
	}
}
