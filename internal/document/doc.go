// Package document sets a single value inside YAML or JSON text.
//
// A QueryPath such as `.image.tag` or `.containers[0].image` addresses the
// node. Edits keep every byte outside the replaced value whenever the value
// occupies a single line, so comments, key order, and indentation survive.
// YAML scalars that span lines, and non-scalar targets, are replaced by
// re-encoding the document stream.
package document
