package model

import (
	"reflect"
	"sync"
)

// components holds sub-markup registered per model type.
var components = struct {
	sync.RWMutex
	byType map[reflect.Type]string
}{byType: make(map[reflect.Type]string)}

// RegisterComponents records markup rendered alongside models of the same
// type as m. A later registration replaces the earlier one.
func RegisterComponents(m any, markup string) {
	t := structType(m)
	if t == nil {
		return
	}
	components.Lock()
	components.byType[t] = markup
	components.Unlock()
}

// Components returns the markup registered for the type of m, or "".
func Components(m any) string {
	t := structType(m)
	if t == nil {
		return ""
	}
	components.RLock()
	defer components.RUnlock()
	return components.byType[t]
}

func structType(m any) reflect.Type {
	t := reflect.TypeOf(m)
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
