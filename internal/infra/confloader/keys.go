package confloader

import (
	"reflect"
	"strings"
)

// envKeys walks the koanf tags of target and returns a map from the
// environment form of each leaf path to the path itself.
func envKeys(target any) map[string]string {
	keys := make(map[string]string)
	if target == nil {
		return keys
	}
	collectKeys(reflect.TypeOf(target), "", keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys map[string]string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		if prefix != "" {
			keys[strings.ReplaceAll(prefix, ".", "_")] = prefix
		}
		return
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("koanf")
		if name == "" || name == "-" {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		collectKeys(f.Type, path, keys)
	}
}
