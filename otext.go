/*
Package otext implements oblivious transfer extension protocols for
secure two-party computation. The library features:

  - KOS15, an IKNP-style correlated OT extension with a randomized
    consistency check secure against malicious adversaries.
  - Ferret, an LPN-based pseudorandom correlated OT generator built
    from single-point (SPCOT) and multi-point (MPCOT) correlated OT
    over GGM trees.
  - VOPE, vector oblivious polynomial evaluation over GF(2^128).
  - The supporting primitives: 128-bit block arithmetic with
    carry-less multiply and GF(2^128) reduction, bit-packed matrix
    transpose, the fixed-key AES TCCR hash, and the Chou-Orlandi
    base OT.

The protocols are explicit finite-state machines over an ordered,
typed message channel; the nested protocols own their correlated OT
oracles by value, so a KOS15 instance can back SPCOT, MPCOT, and
Ferret directly.
*/
package otext
