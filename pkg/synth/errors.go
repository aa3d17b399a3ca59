// Copyright 2025 The Atakora Authors.
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

package synth

import (
	"errors"
	"fmt"
	"strings"
)

// DeclarationError indicates a problem the user must fix in the declaration
// tree: a duplicate logical id, incompatible scope nesting, or a resource
// with no compatible scope ancestor. Synthesis aborts before graph building.
type DeclarationError struct {
	Path string
	Err  error
}

func (e *DeclarationError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}
func (e *DeclarationError) Unwrap() error { return e.Err }

// IsDeclarationError reports whether err (or any error in its chain) is a
// DeclarationError.
func IsDeclarationError(err error) bool {
	var de *DeclarationError
	return errors.As(err, &de)
}

func declErr(path string, err error) error { return &DeclarationError{Path: path, Err: err} }
func declErrf(path, format string, a ...any) error {
	return declErr(path, fmt.Errorf(format, a...))
}

// PartitionOverflowError indicates that a single atomic group exceeds the
// configured unit ceilings. Atomic groups are indivisible, so this is fatal
// and non-recoverable without restructuring the declarations.
type PartitionOverflowError struct {
	// Resources are the logical ids of the overflowing group's members.
	Resources []string
	SizeBytes int
	Count     int
	Limits    Limits
}

// Limits are the unit ceilings the partitioner enforces.
type Limits struct {
	MaxUnitSizeBytes    int
	MaxResourcesPerUnit int
}

func (e *PartitionOverflowError) Error() string {
	return fmt.Sprintf(
		"atomic group [%s] cannot fit in any unit: %d bytes / %d resources against limits %d bytes / %d resources",
		strings.Join(e.Resources, ", "), e.SizeBytes, e.Count,
		e.Limits.MaxUnitSizeBytes, e.Limits.MaxResourcesPerUnit,
	)
}

// IsPartitionOverflow reports whether err is a PartitionOverflowError.
func IsPartitionOverflow(err error) bool {
	var pe *PartitionOverflowError
	return errors.As(err, &pe)
}

// InternalInvariantError indicates a defect in the pipeline itself: an
// invariant that rewriting or emission relied on did not hold. It is never a
// user-facing validation issue.
type InternalInvariantError struct {
	Stage string
	Err   error
}

func (e *InternalInvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated in %s: %v", e.Stage, e.Err)
}
func (e *InternalInvariantError) Unwrap() error { return e.Err }

// IsInternalInvariant reports whether err is an InternalInvariantError.
func IsInternalInvariant(err error) bool {
	var ie *InternalInvariantError
	return errors.As(err, &ie)
}

func internalf(stage, format string, a ...any) error {
	return &InternalInvariantError{Stage: stage, Err: fmt.Errorf(format, a...)}
}

// ValidationFailedError carries the aggregated report when synthesis aborts
// on Error-severity issues after the full validation walk.
type ValidationFailedError struct {
	Report *Report
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s)", e.Report.ErrorCount())
}

// AsValidationFailed returns the ValidationFailedError in err's chain, or nil.
func AsValidationFailed(err error) *ValidationFailedError {
	var ve *ValidationFailedError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
