// Package adapter maps model identifiers onto vendor family variants and
// normalizes each family's tool-call wire convention into the core data
// model. One Adapter value exists per distinct model id, cached for process
// lifetime by the Registry; adapters are stateless after construction.
//
// Family quirks are kept localized through exhaustive switching on the
// closed Family set instead of open-ended subclassing: every operation
// (prompt augmentation, request shaping, native decoding, fallback
// extraction) branches once on the family and nowhere else.
package adapter
