/*
Package matcher maps a spoken or typed phrase to one of the configured intents.

Matching runs in two stages. The exact stage compares normalized phrases and
wins outright with a score of 1.0; the first intent in configuration order
takes precedence. The fuzzy stage drops stopwords, scores every phrase variant
with a Scorer (SequenceRatio by default), keeps the best variant per intent
and lets a Booster adjust the result. A phrase is accepted when the best score
reaches the threshold.

The matcher never fails: a scorer that errors or panics is replaced by
SequenceRatio for that comparison, and an unmatched phrase returns a nil
intent together with the best score that was seen.
*/
package matcher
