// Package criteria defines the search criterion tree.
//
// Criterion, Value, PropertyValue and ObjectID are sealed interfaces using
// the marker method pattern: only types in this package implement them, so
// a type switch over them is exhaustive.
//
// Leaves are typed by what they compare. AttributeDate carries a DateValue,
// AttributeNumber a NumberValue, and Property a PropertyValue (string,
// number, date or boolean). A leaf can therefore never carry a comparison
// value that does not fit its field; there is nothing for a translator to
// reject at that level.
//
// Trees are plain values. They are usually built with the constructors in
// this package or decoded from the JSON/YAML wire format (Node):
//
//	criteria.And(
//		criteria.Attr("code", criteria.StartsWith("PLATE")),
//		criteria.Or(
//			criteria.Prop("CONCENTRATION", criteria.NumberGT(criteria.Float(0.5))),
//			criteria.Prop("$NAME", criteria.Contains("buffer")),
//		),
//	)
package criteria
