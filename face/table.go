/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"github.com/named-data/hobhis/core"
	"golang.org/x/exp/slices"
)

// Table holds all faces of a node.
type Table struct {
	node       string
	faces      map[uint64]Face
	nextFaceID uint64
}

// NewTable creates an empty face table for the named node.
func NewTable(node string) *Table {
	t := new(Table)
	t.node = node
	t.faces = make(map[uint64]Face)
	t.nextFaceID = 1
	return t
}

func (t *Table) String() string {
	return "FaceTable-" + t.node
}

// Add adds a face to the face table and assigns its ID.
func (t *Table) Add(face Face) uint64 {
	faceID := t.nextFaceID
	t.nextFaceID++
	face.SetID(faceID)
	t.faces[faceID] = face
	core.LogDebug(t, "Registered FaceID=", faceID, " ", face)
	return faceID
}

// Get gets the face with the specified ID (if any) from the face table.
func (t *Table) Get(id uint64) Face {
	return t.faces[id]
}

// GetAll returns all faces in ascending ID order.
func (t *Table) GetAll() []Face {
	faces := make([]Face, 0, len(t.faces))
	for _, face := range t.faces {
		faces = append(faces, face)
	}
	slices.SortFunc(faces, func(a, b Face) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return faces
}

// Len returns the number of faces in the table.
func (t *Table) Len() int {
	return len(t.faces)
}

// Remove removes a face from the face table.
func (t *Table) Remove(id uint64) {
	delete(t.faces, id)
	core.LogDebug(t, "Unregistered FaceID=", id)
}
