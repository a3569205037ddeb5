// Package addmember implements the Add Member use case.
//
// New members join today with the status Active. Name and email are required, the email must
// contain an "@" and a "." and must not belong to another member.
package addmember
