// Package collatz computes Collatz sequences with merge-on-hit memoization.
//
// The engine never owns storage. It reads and grows any Table, and when a
// trajectory reaches a start that is already memoized it splices the stored
// sequence in instead of walking on to 1:
//
//	store := memo.NewStore(memo.NewMapRepo(), "memo.json", "current_num.txt")
//	engine := collatz.NewEngine(store)
//	seq, err := engine.SequenceFor(collatz.NewNumber(6)) // [6 3 10 5 16 8 4 2 1]
//
// Numbers have no upper bound. Small values are kept in a uint64 and a step
// whose result would not fit continues in math/big.
package collatz
