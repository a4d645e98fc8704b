// Package shared holds code used by more than one layer without belonging
// to any of them. The testutil subpackage provides hotfire log fixtures and
// a capturing slog handler for tests.
package shared
