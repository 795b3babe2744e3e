// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package jobs schedules periodic maintenance.

	runner, err := jobs.New(jobs.Maintenance(cache, time.Minute, registry, 5*time.Minute)...)
	runner.Start()
	defer runner.Stop()

The first run of each job happens one interval after Start.
*/
package jobs
