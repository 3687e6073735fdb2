/*
   semwatch - System V semaphore usage sampler
   Copyright (C) 2025 Rapid7 Inc.

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU Affero General Public License as published
   by the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Affero General Public License for more details.

   You should have received a copy of the GNU Affero General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package psutils

/*
  The process table is only consulted to find out which accounts run
  the tracked database processes. Two implementations are available:

  - GopsutilTable reads the process table through gopsutil (procfs on
    Linux) and does not shell out.

  - PsTable shells out to ps. This is useful on platforms where
    gopsutil itself would shell out anyway, or to match exactly what
    an operator sees with `ps -C`.
*/
