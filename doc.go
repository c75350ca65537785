/*
 * doc.go, part of gomfi.
 *
 * Copyright 2024 The gomfi Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*Package mfi implements Mean Force Integration (MFI) for metadynamics simulations
with 2 collective variables (CVs).

Given the Gaussian hills deposited by a (well-tempered) metadynamics run, and the CV
positions sampled between depositions, an Accumulator estimates, hill by hill, the
mean thermodynamic force on a 2D Grid: the gradient of the biased probability density,
obtained by kernel density estimation, corrected by the force of the bias accumulated
so far. The running sums also give an on-the-fly estimate of the error of the force,
and its grid average at regular checkpoints gives the convergence history of the run.

	**Capabilities**

    Periodic and non-periodic CVs, on rectangular grids. Samples close to the
	boundary of a periodic CV are replicated on the other side of it.

    Incremental runs: hills can be replayed in chunks, and the running sums
	(the State) can be saved and used to continue a run later.

    Independent walkers can be run concurrently (RunWalkers) and their records
	patched into one mean force, with or without error propagation.

    Progress is reported to an Observer, which can log with zap (LogObserver).

The free energy surface is obtained from the mean force with the package fes.
HILLS and COLVAR files are read with the package plumed, results are saved with
archive and plotted with mfiplot. The command gomfi puts all of them together.
*/
package mfi
