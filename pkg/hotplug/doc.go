// Package hotplug implements the load-based unit hotplug governor.
//
// Every cycle the governor samples aggregate load over the online units and
// feeds it, together with the debounce counters, to Decide:
//
//   - load above the single-step threshold for more than escalate_debounce
//     consecutive cycles brings the lowest offline unit online;
//   - load above up_threshold_all for more than descend_all_debounce cycles
//     brings units online up to max_units in one step;
//   - load below down_threshold for more than down_debounce cycles takes the
//     idlest non-primary unit offline.
//
// While one unit is online the single-step threshold falls back to
// fallback_up_threshold, and while two or fewer are online the down
// threshold falls back to fallback_down_threshold.
//
// When load recovers above the down threshold, the HardReset policy zeroes
// the de-escalation counter and DecayOne decrements it by one.
//
// Actuation is best effort. A unit that refuses a transition is logged and
// counted, and the counters are reset as though the action succeeded.
package hotplug
