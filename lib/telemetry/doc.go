// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry exports the singleton's decisions as Prometheus
// metrics.
//
// [Recorder] implements singleton.Recorder. Every metric is registered
// on the registerer passed to [New], so tests and embedding programs
// can use a private registry instead of the global default:
//
//	registry := prometheus.NewRegistry()
//	recorder := telemetry.New(registry)
//	s, err := singleton.New(singleton.Config{Recorder: recorder, ...})
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
package telemetry
