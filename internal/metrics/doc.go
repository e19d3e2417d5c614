// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

/*
Package metrics defines the Prometheus collectors exported at /metrics.

HTTP Metrics:
  - api_requests_total: requests by method, route pattern and status (counter)
  - api_request_duration_seconds: latency by method and route (histogram)
  - api_active_requests: in-flight requests (gauge)
  - api_rate_limit_hits_total: rejected by httprate (counter)

Store Metrics:
  - store_transaction_duration_seconds: View/Update latency (histogram)
  - store_transaction_errors_total: failed transactions (counter)

Domain Metrics:
  - task_mutations_total: committed creates, updates and deletes (counter)
  - authz_decisions_total: ownership decisions by action and result (counter)

Event Metrics:
  - events_published_total / events_publish_failures_total
  - events_delivered_total: events handed to the hub (counter)
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)

Realtime Metrics:
  - websocket_connections, websocket_subscriptions (gauges)
  - websocket_messages_sent_total, websocket_messages_received_total
  - websocket_errors_total by error_type

All collectors are registered with the default registry via promauto.
*/
package metrics
