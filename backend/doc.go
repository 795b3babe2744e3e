// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package backend defines the contract between YourViews and its
// backend-as-a-service: the Data and Auth interfaces and the sentinel
// errors callers match with errors.Is.
//
// Failures that carry a user-facing message are returned as *Error; use
// Message to extract it.
package backend
