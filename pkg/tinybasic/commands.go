package tinybasic

// defaultCommands is the statement table. SYSTEM is handled by the executor
// itself.
func defaultCommands() map[TokenKind]Command {
	return map[TokenKind]Command{
		KindGoto:   fireAndForget(cmdGoto),
		KindGosub:  fireAndForget(cmdGosub),
		KindReturn: fireAndForget(cmdReturn),
		KindPop:    fireAndForget(cmdPop),
		KindFor:    fireAndForget(cmdFor),
		KindNext:   fireAndForget(cmdNext),
		KindIf:     fireAndForget(cmdIf),
		KindElse:   fireAndForget(cmdElse),
		KindOn:     fireAndForget(cmdOn),
		KindOnErr:  fireAndForget(cmdOnErr),
		KindResume: fireAndForget(cmdResume),
		KindEnd:    fireAndForget(cmdEnd),
		KindStop:   fireAndForget(cmdStop),
		KindCont:   fireAndForget(cmdCont),

		KindLet:   fireAndForget(cmdLet),
		KindDim:   fireAndForget(cmdDim),
		KindClear: fireAndForget(cmdClear),
		KindDef:   fireAndForget(cmdDef),

		KindData:    fireAndForget(cmdData),
		KindRead:    fireAndForget(cmdRead),
		KindRestore: fireAndForget(cmdRestore),

		KindPrint: fireAndForget(cmdPrint),
		KindInput: fireAndForget(cmdInput),
		KindHome:  fireAndForget(cmdHome),
		KindRem:   fireAndForget(cmdRem),

		KindRun:     tokenizerAware(cmdRun),
		KindLoad:    tokenizerAware(cmdLoad),
		KindList:    interruptable(cmdList),
		KindCatalog: interruptable(cmdCatalog),
		KindNew:     fireAndForget(cmdNew),
		KindDel:     fireAndForget(cmdDel),
		KindSave:    fireAndForget(cmdSave),
	}
}
