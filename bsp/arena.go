// Copyright (C) 2022-2023, VigilantDoomer
//
// This file is part of VigilantBSP program.
//
// VigilantBSP is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// VigilantBSP is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VigilantBSP.  If not, see <https://www.gnu.org/licenses/>.
package bsp

// Half-edges and edge tips are created by tens of thousands on big maps and
// all die at once when the partitioner is dropped. They are stored in pages
// of fixed size, so the number of allocations is number_of(pages) rather than
// number_of(records), and records are addressed by index instead of pointer.
// Pages are never reallocated, so a pointer obtained from at() stays valid for
// the lifetime of the arena.

const DEFAULT_ARENA_PAGE_SIZE = 512

type pagedArena[T any] struct {
	pages    [][]T
	count    int
	pageSize int
}

func newPagedArena[T any](pageSize int) pagedArena[T] {
	if pageSize <= 0 {
		pageSize = DEFAULT_ARENA_PAGE_SIZE
	}
	return pagedArena[T]{pageSize: pageSize}
}

// alloc reserves a zeroed record at the end of the arena
func (a *pagedArena[T]) alloc() (int, *T) {
	if a.pageSize == 0 {
		a.pageSize = DEFAULT_ARENA_PAGE_SIZE
	}
	page := a.count / a.pageSize
	if page == len(a.pages) {
		a.pages = append(a.pages, make([]T, a.pageSize))
	}
	idx := a.count
	a.count++
	return idx, &a.pages[page][idx%a.pageSize]
}

func (a *pagedArena[T]) at(idx int) *T {
	return &a.pages[idx/a.pageSize][idx%a.pageSize]
}

func (a *pagedArena[T]) Len() int {
	return a.count
}

func (a *pagedArena[T]) numPages() int {
	return len(a.pages)
}

// Free drops all pages at once
func (a *pagedArena[T]) Free() {
	a.pages = nil
	a.count = 0
}
