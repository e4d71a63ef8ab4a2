// Package tid implements timestamp identifiers (TIDs), the record keys of a
// chain.
//
// A TID is 13 characters of sortable base32, e.g. "3khxr26vou222". String
// order equals numeric order equals creation order within one Cursor.
package tid
