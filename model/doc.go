// Package model provides the shared data types for content collation.
//
// It defines the positioned content element (a tagged variant covering
// text, images, and tables), bounding-box geometry in device space,
// content regions, and the reading-order comparator used everywhere
// element sequences are ordered. Elements are produced upstream by a
// decoding collaborator and are immutable once built.
package model
