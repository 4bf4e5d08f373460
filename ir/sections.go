package ir

import (
	"github.com/pgavlin/warp/wasm"
)

// Sync rebuilds the module's generic section list from its typed sections:
// non-custom sections in ascending ID order followed by the custom sections
// in their original relative order. Helpers that add or remove sections call
// this so the two views never disagree.
func (m *Module) Sync() {
	sections := make([]wasm.Section, 0, 11+len(m.Customs))
	if m.Types != nil {
		sections = append(sections, m.Types)
	}
	if m.Import != nil {
		sections = append(sections, m.Import)
	}
	if m.Function != nil {
		sections = append(sections, m.Function)
	}
	if m.Table != nil {
		sections = append(sections, m.Table)
	}
	if m.Memory != nil {
		sections = append(sections, m.Memory)
	}
	if m.Global != nil {
		sections = append(sections, m.Global)
	}
	if m.Export != nil {
		sections = append(sections, m.Export)
	}
	if m.Start != nil {
		sections = append(sections, m.Start)
	}
	if m.Elements != nil {
		sections = append(sections, m.Elements)
	}
	if m.Code != nil {
		sections = append(sections, m.Code)
	}
	if m.Data != nil {
		sections = append(sections, m.Data)
	}
	for _, c := range m.Customs {
		sections = append(sections, c)
	}
	m.Module.Sections = sections
}

// Touch discards a section's raw image after its entries were edited in
// place, so the next encode serializes the live entries.
func (m *Module) Touch(s wasm.Section) {
	raw := s.GetRawSection()
	raw.Bytes = nil
	raw.Start, raw.End = 0, 0
}

// SetStart installs or replaces the start section.
func (m *Module) SetStart(index uint32) {
	if m.Start != nil {
		m.Start.Index = index
		m.Touch(m.Start)
		return
	}
	m.Start = &wasm.SectionStartFunction{Index: index}
	m.Sync()
}

// ClearStart removes the start section, reporting whether one was present.
func (m *Module) ClearStart() bool {
	if m.Start == nil {
		return false
	}
	m.Start = nil
	m.Sync()
	return true
}

// AddCustom appends a custom section. Multiple custom sections may share a
// name.
func (m *Module) AddCustom(name string, data []byte) {
	m.Customs = append(m.Customs, &wasm.SectionCustom{Name: name, Data: data})
	m.Sync()
}

// RemoveCustoms removes every custom section with the given name and
// reports how many were removed.
func (m *Module) RemoveCustoms(name string) int {
	removed := 0
	kept := m.Customs[:0]
	for _, c := range m.Customs {
		if c.Name == name {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	if removed == 0 {
		return 0
	}
	m.Customs = kept
	m.Sync()
	return removed
}

// DropSection removes the non-custom section with the given ID, reporting
// whether it was present. Only sections a module stays decodable without
// are handled; callers gate the rest.
func (m *Module) DropSection(id wasm.SectionID) bool {
	dropped := false
	switch id {
	case wasm.SectionIDTable:
		dropped = m.Table != nil
		m.Table = nil
	case wasm.SectionIDMemory:
		dropped = m.Memory != nil
		m.Memory = nil
	case wasm.SectionIDGlobal:
		dropped = m.Global != nil
		m.Global = nil
	case wasm.SectionIDExport:
		dropped = m.Export != nil
		m.Export = nil
	case wasm.SectionIDStart:
		dropped = m.Start != nil
		m.Start = nil
	case wasm.SectionIDElement:
		dropped = m.Elements != nil
		m.Elements = nil
	case wasm.SectionIDData:
		dropped = m.Data != nil
		m.Data = nil
	}
	if dropped {
		m.Sync()
	}
	return dropped
}
