// Copyright 2025 Storyloom Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateID indicates a record with the same ID already exists.
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrClosed indicates the storage backend is closed.
	ErrClosed = errors.New("storage is closed")

	// ErrInvalidRecord indicates a record failed validation or decoding.
	ErrInvalidRecord = errors.New("invalid record")
)
