// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - SetRoleRequest: email, role
  - CreateProductRequest: name, description, category, unit_price, image_url
  - CreatePoolRequest: product_id, start_at, end_at, min_quantity
  - JoinPoolRequest: email (optional), quantity

# Response Types

  - CreatedResponse: id
  - JoinPoolResponse: id, pool_status
  - MessageResponse: message
  - ErrorResponse: error, message

# Domain Types

  - UserRole: cognito subject, email and role
  - Product: listing owned by a company email; unit_price is a decimal
  - Pool: group-buy campaign with threshold, deadline and status
  - PoolView: pool plus product name and running total
  - Request: one participant's commitment to a pool
  - Participant: roster entry used in notifications
  - Settlement: the record written when a pool leaves open

# Constants

Status values:

	StatusOpen    = "open"
	StatusSuccess = "success"
	StatusFailed  = "failed"

A pool only ever moves from open to one of the terminal states.

Roles:

	RoleClient  = "client"
	RoleCompany = "company"

Settlement triggers:

	TriggerInline = "inline"
	TriggerSweep  = "sweep"
*/
package models
