// Package envelope classifies trigger payloads into canonical action
// requests.
//
// Classification is a closed, tagged set inspected in fixed priority order:
// a records list means batch, a gateway request marker means gateway-wrapped,
// an action field means direct passthrough. Anything else is rejected as an
// unrecognized envelope rather than defaulting to any action.
package envelope
