// Package netplan computes non-overlapping subnet layouts inside a parent
// network block and resolves conflicts against address space already in use
// in the target account.
//
// All arithmetic is done on IPv4 addresses as unsigned 32-bit integers.
// Blocks produced by the planner are pairwise disjoint and fully contained
// in the parent block; public and private tiers occupy separate offset
// bands so a reviewer can tell them apart at a glance.
package netplan
