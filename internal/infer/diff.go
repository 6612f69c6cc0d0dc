package infer

import (
	"fmt"

	"github.com/oriproj/ori/internal/typepool"
	"github.com/oriproj/ori/internal/unify"
)

// problemDiff produces ordered, human-actionable suggestions from the
// structural difference between expected and found (spec §4.2, §7:
// "suggestions are derived from the structural diff between expected
// and found"). It is intentionally shallow — one level of structural
// comparison is enough to explain the overwhelming majority of
// mismatches a user sees, and matches the examples given in spec §7
// ("types differ in the second field", "argument count mismatch...").
func problemDiff(pool *typepool.Pool, e *unify.Engine, expected, found typepool.Idx) []string {
	expected = e.Resolve(expected)
	found = e.Resolve(found)
	te := pool.Get(expected)
	tf := pool.Get(found)

	if te.Tag != tf.Tag {
		return []string{fmt.Sprintf("types differ in shape: expected a %s, found a %s", te.Tag, tf.Tag)}
	}

	switch te.Tag {
	case typepool.TagTuple:
		if len(te.Params) != len(tf.Params) {
			return []string{fmt.Sprintf("tuple length mismatch: expected %d elements, got %d", len(te.Params), len(tf.Params))}
		}
		return diffPositional(pool, e, te.Params, tf.Params, "element")

	case typepool.TagFunction:
		if len(te.Params) != len(tf.Params) {
			return []string{fmt.Sprintf("argument count mismatch: expected %d, got %d", len(te.Params), len(tf.Params))}
		}
		return diffPositional(pool, e, te.Params, tf.Params, "argument")

	case typepool.TagApplied:
		if te.Name != tf.Name {
			return []string{fmt.Sprintf("expected %s, found %s", te.Name, tf.Name)}
		}
		if len(te.Params) != len(tf.Params) {
			return []string{fmt.Sprintf("%s takes %d type argument(s), found %d", te.Name, len(te.Params), len(tf.Params))}
		}
		return diffPositional(pool, e, te.Params, tf.Params, "type argument")

	case typepool.TagNamed:
		if te.Name != tf.Name {
			return []string{fmt.Sprintf("expected %s, found %s", te.Name, tf.Name)}
		}
		return nil

	default:
		return nil
	}
}

func diffPositional(pool *typepool.Pool, e *unify.Engine, expected, found []typepool.Idx, noun string) []string {
	var out []string
	for i := range expected {
		a := e.Resolve(expected[i])
		b := e.Resolve(found[i])
		if a != b && pool.Get(a).Tag != pool.Get(b).Tag {
			out = append(out, fmt.Sprintf("%ss differ in the %s %s: expected %s, found %s",
				noun, ordinal(i+1), noun, pool.String(a), pool.String(b)))
		}
	}
	return out
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "first"
	case 2:
		return "second"
	case 3:
		return "third"
	case 4:
		return "fourth"
	default:
		return fmt.Sprintf("%dth", n)
	}
}
