/*
Package expr evaluates small boolean expressions against a parameter map.

Trigger rules loaded from configuration use these expressions as
conditions, for example "icd10 startswith E11 and severity >= 2".

# Syntax

	expr    := or
	or      := and { " or " and }
	and     := unary { " and " unary }
	unary   := ("not " | "!") unary | compare
	compare := operand [ op operand ]
	op      := == | != | >= | <= | > | < | contains | startswith | in

Operands are quoted strings, numbers, true/false/null, or variable names.
Variable names may use dots to reach into nested maps ("outputs.claim_id").
An unknown bare identifier resolves to itself as a string, so
"status == executed" works without quotes. A lone operand is tested for
truthiness. Separators and operators inside a quoted literal are part of
the literal: "reason == 'stop and review'" compares against the whole phrase.

The right side of "in" is a comma-separated list: "product in patientsim,trialsim".
*/
package expr
