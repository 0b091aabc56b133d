// SPDX-License-Identifier: MPL-2.0

// Package render assembles located guidance into output documents.
//
// Two layouts are supported. Merged renders every included package as a
// section of one document. Linked renders inline packages into the index and
// gives every linked package its own file in a folder, referenced from the
// index by a markdown link or an "@path" reference.
//
// Generated text sits between block markers so regeneration replaces it while
// keeping whatever the user wrote around it (see Splice). Every package
// section is delimited by HTML comment markers carrying its identity.
//
// Output is a pure function of the entries: the same inputs always render
// byte-identical documents.
package render
