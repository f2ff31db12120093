package diskmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Valmach/HashMapper/pkg/repl"
)

// handle holds the *Map a Repl's commands operate on. It exists so
// "compact" (which closes the old map and opens a fresh one at the
// same directory) can swap the live pointer out from under every other
// command without the REPL needing to know about it.
type handle struct {
	m           *Map
	compactOpts Options
}

// Repl builds a REPL exposing m's operations as text commands, keyed
// and valued as decimal integers for interactive convenience. Grounded
// on db_repl.go's DatabaseRepl: one AddCommand per operation, each
// handler parsing its payload fields and delegating to the map.
func Repl(m *Map, compactOpts Options) *repl.REPL {
	h := &handle{m: m, compactOpts: compactOpts}
	r := repl.NewRepl()

	r.AddCommand("get", func(payload string, _ *repl.REPLConfig) (string, error) {
		return handleGet(h.m, payload)
	}, "Look up a key. usage: get <key>")

	r.AddCommand("put", func(payload string, _ *repl.REPLConfig) (string, error) {
		return handlePut(h.m, payload)
	}, "Insert or overwrite a key. usage: put <key> <val>")

	r.AddCommand("putifabsent", func(payload string, _ *repl.REPLConfig) (string, error) {
		return handlePutIfAbsent(h.m, payload)
	}, "Insert a key only if absent. usage: putifabsent <key> <val>")

	r.AddCommand("remove", func(payload string, _ *repl.REPLConfig) (string, error) {
		return handleRemove(h.m, payload)
	}, "Remove a key. usage: remove <key>")

	r.AddCommand("removeif", func(payload string, _ *repl.REPLConfig) (string, error) {
		return handleRemoveIf(h.m, payload)
	}, "Remove a key only if its value matches. usage: removeif <key> <val>")

	r.AddCommand("replace", func(payload string, _ *repl.REPLConfig) (string, error) {
		return handleReplace(h.m, payload)
	}, "Replace the value of an existing key. usage: replace <key> <val>")

	r.AddCommand("replaceif", func(payload string, _ *repl.REPLConfig) (string, error) {
		return handleReplaceIf(h.m, payload)
	}, "Replace a key's value only if the current value matches. usage: replaceif <key> <oldval> <newval>")

	r.AddCommand("size", func(_ string, _ *repl.REPLConfig) (string, error) {
		return fmt.Sprintf("%d\n", h.m.Size()), nil
	}, "Print the number of live entries. usage: size")

	r.AddCommand("iterate", func(_ string, _ *repl.REPLConfig) (string, error) {
		return handleIterate(h.m)
	}, "Print every (key, value) pair. usage: iterate")

	r.AddCommand("stat", func(_ string, _ *repl.REPLConfig) (string, error) {
		report := h.m.VerifyGarbage()
		return fmt.Sprintf("size=%d tableLength=%d allocated=%d reachable=%d reachableNodes=%d\n",
			h.m.Size(), h.m.tableLength.Load(), report.AllocatedBytes, report.ReachableBytes, report.ReachableNodes), nil
	}, "Print size, table length, and garbage stats. usage: stat")

	r.AddCommand("compact", func(_ string, _ *repl.REPLConfig) (string, error) {
		compacted, err := h.m.Compact(h.compactOpts)
		if err != nil {
			return "", fmt.Errorf("compact error: %v", err)
		}
		h.m = compacted
		return "compacted\n", nil
	}, "Rewrite the backing files, discarding garbage from superseded records. usage: compact")

	return r
}

func fieldsAsInt64(fields []string) ([]int64, error) {
	out := make([]int64, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", f)
		}
		out[i] = n
	}
	return out, nil
}

func encodeKey(n int64) []byte {
	return []byte(strconv.FormatInt(n, 10))
}

func handleGet(m *Map, payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return "", fmt.Errorf("usage: get <key>")
	}
	nums, err := fieldsAsInt64(fields[1:])
	if err != nil {
		return "", fmt.Errorf("get error: %v", err)
	}
	val, ok := m.Get(encodeKey(nums[0]))
	if !ok {
		return "", fmt.Errorf("get error: key not found")
	}
	return fmt.Sprintf("%s\n", val), nil
}

func handlePut(m *Map, payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) != 3 {
		return "", fmt.Errorf("usage: put <key> <val>")
	}
	nums, err := fieldsAsInt64(fields[1:])
	if err != nil {
		return "", fmt.Errorf("put error: %v", err)
	}
	prev, had := m.Put(encodeKey(nums[0]), encodeKey(nums[1]))
	if had {
		return fmt.Sprintf("replaced previous value %s\n", prev), nil
	}
	return "inserted\n", nil
}

func handlePutIfAbsent(m *Map, payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) != 3 {
		return "", fmt.Errorf("usage: putifabsent <key> <val>")
	}
	nums, err := fieldsAsInt64(fields[1:])
	if err != nil {
		return "", fmt.Errorf("putifabsent error: %v", err)
	}
	_, had := m.PutIfAbsent(encodeKey(nums[0]), encodeKey(nums[1]))
	if had {
		return "key already present\n", nil
	}
	return "inserted\n", nil
}

func handleRemove(m *Map, payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return "", fmt.Errorf("usage: remove <key>")
	}
	nums, err := fieldsAsInt64(fields[1:])
	if err != nil {
		return "", fmt.Errorf("remove error: %v", err)
	}
	prev, had := m.Remove(encodeKey(nums[0]))
	if !had {
		return "", fmt.Errorf("remove error: key not found")
	}
	return fmt.Sprintf("removed value %s\n", prev), nil
}

func handleRemoveIf(m *Map, payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) != 3 {
		return "", fmt.Errorf("usage: removeif <key> <val>")
	}
	nums, err := fieldsAsInt64(fields[1:])
	if err != nil {
		return "", fmt.Errorf("removeif error: %v", err)
	}
	if !m.RemoveIf(encodeKey(nums[0]), encodeKey(nums[1])) {
		return "", fmt.Errorf("removeif error: no matching entry")
	}
	return "removed\n", nil
}

func handleReplace(m *Map, payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) != 3 {
		return "", fmt.Errorf("usage: replace <key> <val>")
	}
	nums, err := fieldsAsInt64(fields[1:])
	if err != nil {
		return "", fmt.Errorf("replace error: %v", err)
	}
	prev, had := m.Replace(encodeKey(nums[0]), encodeKey(nums[1]))
	if !had {
		return "", fmt.Errorf("replace error: key not found")
	}
	return fmt.Sprintf("replaced previous value %s\n", prev), nil
}

func handleReplaceIf(m *Map, payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) != 4 {
		return "", fmt.Errorf("usage: replaceif <key> <oldval> <newval>")
	}
	nums, err := fieldsAsInt64(fields[1:])
	if err != nil {
		return "", fmt.Errorf("replaceif error: %v", err)
	}
	if !m.ReplaceIf(encodeKey(nums[0]), encodeKey(nums[1]), encodeKey(nums[2])) {
		return "", fmt.Errorf("replaceif error: no matching entry")
	}
	return "replaced\n", nil
}

func handleIterate(m *Map) (string, error) {
	var sb strings.Builder
	it := NewIterator(m)
	for it.Next() {
		fmt.Fprintf(&sb, "(%s, %s)\n", it.Key(), it.Val())
	}
	return sb.String(), nil
}
