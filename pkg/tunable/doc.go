// Package tunable holds the live parameter tables the governors read every
// cycle and administrators write at any time.
//
// Each governor owns one Store. Values are validated at the write boundary:
// a non-numeric value, or one outside the parameter's bounds, is rejected
// with errors.ErrCodeInvalidRequest and the store keeps its previous state.
// Boolean parameters accept 0/1, true/false, on/off and yes/no; integers
// greater than one are clamped to one.
//
//	store := tunable.NewStore("hotplug",
//	    tunable.Param{Name: "active", Kind: tunable.KindBool, Default: 1},
//	    tunable.Param{Name: "down_threshold", Default: 30, Max: 100},
//	)
//	if err := store.Set("down_threshold", "25"); err != nil {
//	    return err
//	}
package tunable
