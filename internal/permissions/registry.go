package permissions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ModuleDef describes a functional area registered in the permission catalog.
type ModuleDef struct {
	Code string
	Name string
}

// TypeDef describes an action kind (single-letter code such as C or R).
type TypeDef struct {
	Code string
	Name string
}

type catalogRegistry struct {
	mu        sync.RWMutex
	modules   map[string]ModuleDef
	moduleSeq []string
	types     map[string]TypeDef
	typeSeq   []string
}

var globalRegistry = &catalogRegistry{
	modules: make(map[string]ModuleDef),
	types:   make(map[string]TypeDef),
}

var (
	errEmptyCode       = errors.New("permission catalog: code is required")
	errDuplicateModule = errors.New("permission catalog: module already registered")
	errDuplicateType   = errors.New("permission catalog: permission type already registered")
	errTypeCodeLength  = errors.New("permission catalog: permission type code must be a single letter")
)

// RegisterModule adds a module definition to the global catalog.
func RegisterModule(def ModuleDef) error {
	code := strings.ToUpper(strings.TrimSpace(def.Code))
	if code == "" {
		return errEmptyCode
	}
	def.Code = code
	def.Name = strings.TrimSpace(def.Name)

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.modules[code]; exists {
		return fmt.Errorf("%w: %s", errDuplicateModule, code)
	}

	globalRegistry.modules[code] = def
	globalRegistry.moduleSeq = append(globalRegistry.moduleSeq, code)
	return nil
}

// RegisterType adds a permission type definition to the global catalog.
func RegisterType(def TypeDef) error {
	code := strings.ToUpper(strings.TrimSpace(def.Code))
	if code == "" {
		return errEmptyCode
	}
	if len(code) != 1 {
		return fmt.Errorf("%w: %q", errTypeCodeLength, code)
	}
	def.Code = code
	def.Name = strings.TrimSpace(def.Name)

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.types[code]; exists {
		return fmt.Errorf("%w: %s", errDuplicateType, code)
	}

	globalRegistry.types[code] = def
	globalRegistry.typeSeq = append(globalRegistry.typeSeq, code)
	return nil
}

// GetModule returns the module definition when registered.
func GetModule(code string) (ModuleDef, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	def, ok := globalRegistry.modules[strings.ToUpper(strings.TrimSpace(code))]
	return def, ok
}

// GetType returns the permission type definition when registered.
func GetType(code string) (TypeDef, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	def, ok := globalRegistry.types[strings.ToUpper(strings.TrimSpace(code))]
	return def, ok
}

// Modules returns all registered modules in registration order.
func Modules() []ModuleDef {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	out := make([]ModuleDef, 0, len(globalRegistry.moduleSeq))
	for _, code := range globalRegistry.moduleSeq {
		out = append(out, globalRegistry.modules[code])
	}
	return out
}

// Types returns all registered permission types in registration order.
func Types() []TypeDef {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	out := make([]TypeDef, 0, len(globalRegistry.typeSeq))
	for _, code := range globalRegistry.typeSeq {
		out = append(out, globalRegistry.types[code])
	}
	return out
}

// PermissionName builds the canonical {ModuleCode}_{TypeCode} identifier.
func PermissionName(moduleCode, typeCode string) string {
	return strings.ToUpper(strings.TrimSpace(moduleCode)) + "_" + strings.ToUpper(strings.TrimSpace(typeCode))
}

// AllNames returns every permission name in the catalog cross product, sorted.
func AllNames() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	names := make([]string, 0, len(globalRegistry.moduleSeq)*len(globalRegistry.typeSeq))
	for _, m := range globalRegistry.moduleSeq {
		for _, t := range globalRegistry.typeSeq {
			names = append(names, m+"_"+t)
		}
	}
	sort.Strings(names)
	return names
}

// reset clears registry entries. Intended for testing only.
func reset() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.modules = make(map[string]ModuleDef)
	globalRegistry.moduleSeq = nil
	globalRegistry.types = make(map[string]TypeDef)
	globalRegistry.typeSeq = nil
}

func removeModule(code string) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	code = strings.ToUpper(strings.TrimSpace(code))
	delete(globalRegistry.modules, code)
	for i, existing := range globalRegistry.moduleSeq {
		if existing == code {
			globalRegistry.moduleSeq = append(globalRegistry.moduleSeq[:i], globalRegistry.moduleSeq[i+1:]...)
			break
		}
	}
}
